package entities

import (
	"errors"
	"time"
)

// ConversationStatus represents the lifecycle of a conversation.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationReset     ConversationStatus = "reset"
)

// Direction identifies who produced a turn.
type Direction string

const (
	DirectionInbound  Direction = "inbound"  // from the user
	DirectionOutbound Direction = "outbound" // from the assistant
)

// Conversation groups an ordered sequence of turns for one user.
// A user has at most one active conversation at a time.
type Conversation struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	UserID        uint               `gorm:"index;not null" json:"user_id"`
	Status        ConversationStatus `gorm:"not null;default:active" json:"status"`
	StartedAt     time.Time          `json:"started_at"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`

	Turns []Turn `gorm:"constraint:OnDelete:CASCADE" json:"turns,omitempty"`
}

// NewConversation opens an active conversation for a user.
func NewConversation(userID uint) *Conversation {
	return &Conversation{
		UserID:    userID,
		Status:    ConversationActive,
		StartedAt: time.Now(),
	}
}

// Complete closes the conversation.
func (c *Conversation) Complete() {
	c.Status = ConversationCompleted
}

// Turn is one message exchanged in either direction. Turns are immutable
// once persisted; ordering by CreatedAt (ID as tiebreak) defines history.
type Turn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	Direction      Direction `gorm:"not null" json:"direction"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	// ProviderMessageID is the messaging provider's id for inbound turns.
	// The unique index makes webhook redelivery idempotent.
	ProviderMessageID string      `gorm:"uniqueIndex;default:null" json:"provider_message_id,omitempty"`
	AudioAssetID      *uint       `json:"audio_asset_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	AudioAsset        *AudioAsset `gorm:"constraint:OnDelete:SET NULL" json:"audio_asset,omitempty"`
}

// NewInboundTurn records a message received from the user.
func NewInboundTurn(conversationID uint, content, providerMessageID string) *Turn {
	return &Turn{
		ConversationID:    conversationID,
		Direction:         DirectionInbound,
		Content:           content,
		ProviderMessageID: providerMessageID,
		CreatedAt:         time.Now(),
	}
}

// NewOutboundTurn records a reply sent to the user.
func NewOutboundTurn(conversationID uint, content string) *Turn {
	return &Turn{
		ConversationID: conversationID,
		Direction:      DirectionOutbound,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// Validate checks the invariants a turn must hold before persisting.
func (t *Turn) Validate() error {
	if t.ConversationID == 0 {
		return errors.New("conversation id is required")
	}
	if t.Direction != DirectionInbound && t.Direction != DirectionOutbound {
		return errors.New("invalid turn direction")
	}
	if t.Content == "" {
		return errors.New("content is required")
	}
	return nil
}
