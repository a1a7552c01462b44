package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/professorai/server/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition.
type MockSpeechToText struct {
	// Text overrides the transcription when set.
	Text string
	// Err makes every call fail when set.
	Err    error
	logger *zap.Logger
}

// Ensure MockSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service.
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe implements repositories.SpeechToText.
func (m *MockSpeechToText) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is empty")
	}
	if m.Text != "" {
		return m.Text, nil
	}

	m.logger.Info("Mock transcription", zap.Int("audio_size", len(audio)))

	// Vary the canned transcript with input size so tests can distinguish
	// short and long voice notes.
	switch {
	case len(audio) > 10000:
		return "I would like to practice my English conversation skills today.", nil
	case len(audio) > 1000:
		return "Hello, how are you?", nil
	default:
		return "Hi", nil
	}
}
