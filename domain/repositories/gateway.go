package repositories

import "context"

// MessageGateway abstracts the messaging provider. Implementations translate
// between provider payloads and the internal message representation so the
// rest of the system stays provider-agnostic.
type MessageGateway interface {
	SendText(ctx context.Context, to, text string) error
	SendAudio(ctx context.Context, to, audioURL string) error
	// DownloadMedia fetches the raw bytes of a received media object.
	DownloadMedia(ctx context.Context, mediaID string) (data []byte, contentType string, err error)
}

// AudioStore persists audio files and serves them back by a stable reference
// usable in outbound message payloads.
type AudioStore interface {
	// Store writes the audio durably and returns the asset filename.
	Store(data []byte, contentType string) (filename string, err error)
	// Read returns the stored bytes, or an error satisfying IsNotFound.
	Read(filename string) ([]byte, error)
	// URL derives the public retrieval URL for a stored filename.
	URL(filename string) string
}
