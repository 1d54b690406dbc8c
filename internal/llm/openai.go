package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = openai.GPT3Dot5Turbo

	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 60 * time.Second
)

// ErrNoAPIKey is returned when a completion is attempted without a
// configured API key. Configuration errors short-circuit immediately
// and are never retried.
var ErrNoAPIKey = errors.New("llm: API key is not configured")

// OpenAI implements Client over the OpenAI chat-completions API.
// Reconfigure may be called at any time; in-flight calls keep the
// client they started with.
type OpenAI struct {
	mu     sync.RWMutex
	client *openai.Client
	model  string
}

// NewOpenAI creates a completion client. An empty key is accepted so
// the bot can start unconfigured; calls fail with ErrNoAPIKey until a
// key arrives through Reconfigure.
func NewOpenAI(apiKey, model string) *OpenAI {
	o := &OpenAI{}
	o.Reconfigure(apiKey, model)
	return o
}

// Reconfigure swaps the API key and model used for subsequent calls.
func (o *OpenAI) Reconfigure(apiKey, model string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if model == "" {
		model = DefaultModel
	}
	o.model = model
	if strings.TrimSpace(apiKey) == "" {
		o.client = nil
		return
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	o.client = openai.NewClientWithConfig(cfg)
}

// Complete implements Client.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	o.mu.RLock()
	client := o.client
	model := o.model
	o.mu.RUnlock()

	if client == nil {
		return "", ErrNoAPIKey
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// IsAuthError reports whether err is an authentication failure from
// the completion API.
func IsAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized
	}
	return false
}

// IsRateLimited reports whether err is a quota or rate-limit rejection.
func IsRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
