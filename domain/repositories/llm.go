package repositories

import "context"

// LargeLanguageModel abstracts any chat-completion provider.
type LargeLanguageModel interface {
	// Complete sends a system prompt plus conversation messages and returns
	// the model's reply as opaque text.
	Complete(ctx context.Context, system string, messages []ChatMessage) (string, error)
	// Name identifies the provider for logging and error reporting.
	Name() string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender.
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
