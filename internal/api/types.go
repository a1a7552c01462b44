package api

import (
	"encoding/json"
	"time"

	"github.com/professorai/server/domain/entities"
)

// WebhookAck acknowledges a webhook delivery. The action field mirrors the
// processing outcome for provider-side debugging.
type WebhookAck struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// AdminTokenRequest represents the request payload for admin token exchange
type AdminTokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// AdminTokenResponse represents the response payload for admin token exchange
type AdminTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConversationSummaryResponse is one row of the admin conversation listing.
type ConversationSummaryResponse struct {
	ID            uint                        `json:"id"`
	UserPhone     string                      `json:"user_phone"`
	UserName      string                      `json:"user_name,omitempty"`
	UserLevel     entities.EnglishLevel       `json:"user_level,omitempty"`
	Status        entities.ConversationStatus `json:"status"`
	StartedAt     time.Time                   `json:"started_at"`
	LastMessageAt *time.Time                  `json:"last_message_at,omitempty"`
	MessageCount  int64                       `json:"message_count"`
}

// TurnResponse is one message in the admin transcript view.
type TurnResponse struct {
	ID        uint               `json:"id"`
	Direction entities.Direction `json:"direction"`
	Content   string             `json:"content"`
	AudioURL  string             `json:"audio_url,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// UserLevelResponse reports a user's assessed proficiency.
type UserLevelResponse struct {
	Phone               string                `json:"phone"`
	Level               entities.EnglishLevel `json:"english_level,omitempty"`
	AssessmentCompleted bool                  `json:"assessment_completed"`
}

// StudyPlanResponse carries the study plan generated for a user.
type StudyPlanResponse struct {
	Phone     string                `json:"phone"`
	Level     entities.EnglishLevel `json:"english_level,omitempty"`
	StudyPlan json.RawMessage       `json:"study_plan"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
