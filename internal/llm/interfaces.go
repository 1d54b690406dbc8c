// Package llm provides the chat-completion client used for field
// extraction, location fallback and casual conversation replies.
package llm

import "context"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string
	Content string
}

// Chat roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request describes a single completion call.
type Request struct {
	// System is the system instruction prepended to the conversation.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// JSONMode forces the model to return a single JSON object.
	JSONMode bool

	// Temperature controls sampling. Zero means the provider default.
	Temperature float32

	// MaxTokens caps the response length. Zero means no explicit cap.
	MaxTokens int
}

// Client is the completion interface the rest of the bot depends on.
type Client interface {
	// Complete runs one completion and returns the assistant text.
	Complete(ctx context.Context, req Request) (string, error)
}
