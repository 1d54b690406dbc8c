package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const sendTimeout = 30 * time.Second

// ErrGatewayUnconfigured means the gateway URL is empty.
var ErrGatewayUnconfigured = errors.New("whatsapp: gateway url is not configured")

// Gateway sends messages through a WhatsApp HTTP gateway. Sending tries the
// direct send endpoint first and the reply endpoint second; if both fail the
// failure is logged and swallowed so one bad delivery never aborts a
// conversation turn.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) GatewayOption {
	return func(g *Gateway) { g.httpClient = h }
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway builds a Gateway for the given base URL and bearer token.
func NewGateway(baseURL, token string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		httpClient: &http.Client{Timeout: sendTimeout},
		baseURL:    baseURL,
		token:      token,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send delivers text to a chat ID. A delivery that fails on both endpoints
// returns nil after logging; ErrGatewayUnconfigured is the only error.
func (g *Gateway) Send(ctx context.Context, recipient, text string) error {
	if g.baseURL == "" {
		return ErrGatewayUnconfigured
	}

	if err := g.post(ctx, "/send", sendRequest{To: recipient, Body: text}); err == nil {
		return nil
	} else {
		g.logger.Warn("direct send failed, trying reply endpoint",
			"recipient", recipient, "error", err)
	}

	if err := g.post(ctx, "/reply", sendRequest{To: recipient, Body: text}); err != nil {
		g.logger.Error("both sending methods failed",
			"recipient", recipient, "error", err)
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, path string, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
