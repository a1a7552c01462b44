package llm

import (
	"context"
	"fmt"

	"github.com/professorai/server/domain/repositories"
)

// MockChatCompletion is a placeholder implementation used in tests and when
// running without provider credentials.
type MockChatCompletion struct {
	// Reply overrides the generated response when set.
	Reply string
	// Err makes every call fail when set.
	Err error
	// Calls records the messages each call received.
	Calls [][]repositories.ChatMessage
}

// Ensure MockChatCompletion implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*MockChatCompletion)(nil)

// NewMockChatCompletion creates a new mock chat provider.
func NewMockChatCompletion() *MockChatCompletion {
	return &MockChatCompletion{}
}

// Name implements repositories.LargeLanguageModel.
func (m *MockChatCompletion) Name() string { return "mock" }

// Complete implements repositories.LargeLanguageModel.
func (m *MockChatCompletion) Complete(ctx context.Context, system string, messages []repositories.ChatMessage) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	if len(messages) == 0 {
		return "Hello! What would you like to practice today?", nil
	}
	last := messages[len(messages)-1]
	return fmt.Sprintf("That's interesting! You said: '%s'. Let's keep practicing.", last.Content), nil
}
