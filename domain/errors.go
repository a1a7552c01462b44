package domain

import "fmt"

// ParseError reports a malformed inbound webhook payload. Events that fail
// to parse are dropped, not retried.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// DeliveryError reports that the messaging provider rejected an outbound
// send. StatusCode is the provider's HTTP status; Code is the provider
// error code when present.
type DeliveryError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
}

// graphCodeRecipientNotAllowed is returned by the Graph API when a phone
// number is not in the sandbox allow list.
const graphCodeRecipientNotAllowed = 131030

// PermissionDenied reports whether the send failed because the recipient is
// not in the provider's allowed list, which is routine during development.
func (e *DeliveryError) PermissionDenied() bool {
	return e.Code == graphCodeRecipientNotAllowed
}

// TranscriptionError reports a speech-to-text provider failure. The caller
// falls back to the text-only path.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription error: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// SynthesisError reports a text-to-speech provider failure. The caller falls
// back to a text reply.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "synthesis error: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// GenerationError reports an AI text-generation failure. The orchestrator
// must answer with a canned fallback rather than fail silently.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError reports that the database was unavailable. The current
// request is aborted with a generic error reply instead of proceeding on
// stale state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
