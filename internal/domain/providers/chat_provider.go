package providers

import (
	"context"
)

// Chat roles understood by the completion upstream.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatProvider produces the assistant's next turn for a conversation.
type ChatProvider interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}
