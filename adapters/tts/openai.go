package tts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/repositories"
)

const (
	defaultTTSModel       = "tts-1"
	defaultVoice          = "alloy"
	defaultTimeoutSeconds = 30
	mp3ContentType        = "audio/mpeg"
)

// SpeechConfig holds configuration for the OpenAI speech synthesis adapter.
// Required fields:
// - APIKey: the OpenAI API key
// Optional fields with defaults:
// - Model: the synthesis model (default "tts-1")
// - Voice: the voice preset (default "alloy")
// - TimeoutSeconds: per-request timeout (default 30)
type SpeechConfig struct {
	APIKey         string
	Model          string
	Voice          string
	TimeoutSeconds int
}

// ValidateSpeechConfig validates the SpeechConfig.
func ValidateSpeechConfig(config SpeechConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("openai API key is required")
	}
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}
	return nil
}

// OpenAISpeech implements the TextToSpeech interface using OpenAI's speech
// synthesis API, producing mp3 voice notes.
type OpenAISpeech struct {
	client         *openai.Client
	model          string
	voice          string
	timeoutSeconds int
	logger         *zap.Logger
}

// Ensure OpenAISpeech implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*OpenAISpeech)(nil)

// NewOpenAISpeech creates a new OpenAI speech synthesis adapter.
func NewOpenAISpeech(config SpeechConfig, logger *zap.Logger) (*OpenAISpeech, error) {
	if err := ValidateSpeechConfig(config); err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = defaultTTSModel
	}
	voice := config.Voice
	if voice == "" {
		voice = defaultVoice
	}
	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &OpenAISpeech{
		client:         openai.NewClient(config.APIKey),
		model:          model,
		voice:          voice,
		timeoutSeconds: timeoutSeconds,
		logger:         logger,
	}, nil
}

// Synthesize renders text as an mp3 voice note. A single attempt is made;
// failures surface as *domain.SynthesisError so the caller can fall back to
// a text reply.
func (o *OpenAISpeech) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", &domain.SynthesisError{Err: fmt.Errorf("text cannot be empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(o.timeoutSeconds)*time.Second)
	defer cancel()

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.SpeechVoice(o.voice),
		Input:          text,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		o.logger.Warn("Speech synthesis failed", zap.Error(err))
		return nil, "", &domain.SynthesisError{Err: err}
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", &domain.SynthesisError{Err: fmt.Errorf("failed to read audio stream: %w", err)}
	}
	if len(audio) == 0 {
		return nil, "", &domain.SynthesisError{Err: fmt.Errorf("empty audio response")}
	}

	o.logger.Info("Speech synthesis completed",
		zap.Int("text_length", len(text)),
		zap.Int("audio_size", len(audio)))

	return audio, mp3ContentType, nil
}
