package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider produces the assistant reply for a conversation, oldest message first.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
