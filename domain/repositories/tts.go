package repositories

import "context"

// TextToSpeech abstracts voice synthesis services.
type TextToSpeech interface {
	// Synthesize renders text as audio and reports the content type of the
	// returned bytes.
	Synthesize(ctx context.Context, text string) (audio []byte, contentType string, err error)
}
