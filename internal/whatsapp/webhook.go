package whatsapp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

// Webhook receives gateway callbacks and hands each message to the bot.
// Processing happens asynchronously through the enqueue function so the
// gateway gets its 200 immediately.
type Webhook struct {
	enqueue func(msg IncomingMessage)
	token   string
	logger  *slog.Logger
}

// NewWebhook builds a Webhook. The token, when non-empty, must match the
// Authorization bearer token of incoming callbacks.
func NewWebhook(enqueue func(msg IncomingMessage), token string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{enqueue: enqueue, token: token, logger: logger}
}

// Register mounts the webhook route on the given echo instance.
func (w *Webhook) Register(e *echo.Echo) {
	e.POST("/webhook/whatsapp", w.handle)
}

type webhookPayload struct {
	From      string `json:"from"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}

func (w *Webhook) handle(c *echo.Context) error {
	if w.token != "" && c.Request().Header.Get("Authorization") != "Bearer "+w.token {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook token")
	}

	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed webhook payload")
	}
	if payload.From == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing sender")
	}

	ts := time.Now()
	if payload.Timestamp > 0 {
		ts = time.Unix(payload.Timestamp, 0)
	}

	w.logger.Debug("webhook message received", "from", payload.From, "from_me", payload.FromMe)
	w.enqueue(IncomingMessage{
		From:      payload.From,
		Text:      payload.Body,
		Timestamp: ts,
		FromSelf:  payload.FromMe,
	})

	return c.JSON(http.StatusOK, map[string]string{"status": "queued"})
}
