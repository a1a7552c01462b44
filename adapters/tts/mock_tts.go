package tts

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/professorai/server/domain/repositories"
)

// MockTextToSpeech is a placeholder implementation for voice synthesis.
type MockTextToSpeech struct {
	// Err makes every call fail when set.
	Err    error
	logger *zap.Logger
}

// Ensure MockTextToSpeech implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a new mock text-to-speech service.
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

// Synthesize implements repositories.TextToSpeech. The returned bytes embed
// the input so tests can assert what was spoken.
func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if m.Err != nil {
		return nil, "", m.Err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("text cannot be empty")
	}

	m.logger.Info("Mock synthesis", zap.Int("text_length", len(text)))
	return []byte("mock-audio:" + text), "audio/mpeg", nil
}
