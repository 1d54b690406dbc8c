// Package whatsapp carries messages between the bot and a WhatsApp HTTP
// gateway: outgoing texts via the gateway's send endpoint, incoming ones
// via a webhook the gateway posts to.
package whatsapp

import (
	"context"
	"time"
)

// IncomingMessage is one message received over the webhook.
type IncomingMessage struct {
	// From is the sender's chat ID, e.g. "79001234567@c.us".
	From string
	// Text is the message body.
	Text string
	// Timestamp is when the message was sent.
	Timestamp time.Time
	// FromSelf marks messages the bot's own account sent.
	FromSelf bool
}

// Messenger delivers outgoing messages.
type Messenger interface {
	// Send delivers text to the recipient chat ID.
	Send(ctx context.Context, recipient, text string) error
}

// Handler consumes incoming messages.
type Handler interface {
	// HandleMessage processes one incoming message.
	HandleMessage(ctx context.Context, msg IncomingMessage) error
}
