package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/repositories"
)

const (
	defaultSTTModel       = "whisper-1"
	defaultTimeoutSeconds = 30
)

// WhisperConfig holds configuration for the Whisper transcription adapter.
// Required fields:
// - APIKey: the OpenAI API key
// Optional fields with defaults:
// - Model: the transcription model (default "whisper-1")
// - Language: hint for the spoken language, empty lets the model detect
// - TimeoutSeconds: per-request timeout (default 30)
type WhisperConfig struct {
	APIKey         string
	Model          string
	Language       string
	TimeoutSeconds int
}

// WhisperSpeechToText implements the SpeechToText interface using OpenAI's
// Whisper transcription API.
type WhisperSpeechToText struct {
	client         *openai.Client
	model          string
	language       string
	timeoutSeconds int
	logger         *zap.Logger
}

// Ensure WhisperSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText creates a new Whisper transcription adapter.
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := config.Model
	if model == "" {
		model = defaultSTTModel
	}
	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &WhisperSpeechToText{
		client:         openai.NewClient(config.APIKey),
		model:          model,
		language:       config.Language,
		timeoutSeconds: timeoutSeconds,
		logger:         logger,
	}, nil
}

// Transcribe converts a complete voice note to text. A single attempt is
// made; failures surface as *domain.TranscriptionError so the caller can
// fall back to the text-only path.
func (w *WhisperSpeechToText) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("audio is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(w.timeoutSeconds)*time.Second)
	defer cancel()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Language: w.language,
	})
	if err != nil {
		w.logger.Warn("Transcription failed", zap.String("filename", filename), zap.Error(err))
		return "", &domain.TranscriptionError{Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("no speech detected in audio")}
	}

	w.logger.Info("Transcription completed",
		zap.Int("audio_size", len(audio)),
		zap.Int("text_length", len(text)))

	return text, nil
}
