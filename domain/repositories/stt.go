package repositories

import "context"

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Transcribe converts a complete voice note to text. The filename hint
	// carries the extension some providers use to pick a decoder.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
