package entities

import "time"

// AudioKind distinguishes voice notes we received from audio we generated.
type AudioKind string

const (
	AudioReceived  AudioKind = "received"
	AudioGenerated AudioKind = "generated"
)

// AudioAsset is a stored audio file referenced by exactly one turn.
// Assets may be garbage-collected after a retention window; that policy
// lives outside the core flow.
type AudioAsset struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Filename    string    `gorm:"uniqueIndex;not null" json:"filename"`
	ContentType string    `gorm:"not null" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Kind        AudioKind `gorm:"not null" json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}
