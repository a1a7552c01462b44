package entities

import (
	"errors"
	"time"
)

// EnglishLevel is a user's assessed proficiency tier, driving lesson content.
type EnglishLevel string

const (
	LevelBeginner          EnglishLevel = "beginner"
	LevelElementary        EnglishLevel = "elementary"
	LevelIntermediate      EnglishLevel = "intermediate"
	LevelUpperIntermediate EnglishLevel = "upper_intermediate"
	LevelAdvanced          EnglishLevel = "advanced"
)

// ParseEnglishLevel maps a classifier output onto a known level.
func ParseEnglishLevel(s string) (EnglishLevel, error) {
	switch EnglishLevel(s) {
	case LevelBeginner, LevelElementary, LevelIntermediate, LevelUpperIntermediate, LevelAdvanced:
		return EnglishLevel(s), nil
	}
	return "", errors.New("unknown english level: " + s)
}

// UserState is the explicit conversation state stored per user.
type UserState string

const (
	StateNew          UserState = "new"
	StateEvaluating   UserState = "evaluating"
	StateActiveLesson UserState = "active_lesson"
	StateFeedback     UserState = "feedback"
)

// StateInput classifies an inbound message for the transition function.
type StateInput string

const (
	InputMessage       StateInput = "message"        // any ordinary inbound message
	InputLevelAssessed StateInput = "level_assessed" // assessment produced a level
	InputExerciseSent  StateInput = "exercise_sent"  // lesson issued a graded exercise
	InputFeedbackGiven StateInput = "feedback_given" // exercise answer was graded
)

// NextState is the pure transition function over a user's conversation state.
// Unknown combinations keep the current state; the machine has no terminal
// state because conversations are open-ended.
func NextState(current UserState, input StateInput) UserState {
	switch current {
	case StateNew:
		if input == InputMessage {
			return StateEvaluating
		}
	case StateEvaluating:
		if input == InputLevelAssessed {
			return StateActiveLesson
		}
	case StateActiveLesson:
		if input == InputExerciseSent {
			return StateFeedback
		}
	case StateFeedback:
		if input == InputFeedbackGiven {
			return StateActiveLesson
		}
	}
	return current
}

// User represents a learner identified by their WhatsApp phone number.
type User struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Phone     string       `gorm:"uniqueIndex;not null" json:"phone"`
	Name      string       `json:"name"`
	Level     EnglishLevel `json:"english_level"`
	State     UserState    `gorm:"not null;default:new" json:"state"`
	StudyPlan string       `gorm:"type:text" json:"study_plan,omitempty"`
	// AnswersGiven counts assessment answers received while evaluating.
	AnswersGiven int       `json:"answers_given"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`

	Progress Progress `gorm:"constraint:OnDelete:CASCADE" json:"progress"`
}

// NewUser creates a user in the initial state for a phone number.
func NewUser(phone string) *User {
	now := time.Now()
	return &User{
		Phone:      phone,
		State:      StateNew,
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// Advance applies the transition function and records activity.
func (u *User) Advance(input StateInput) {
	u.State = NextState(u.State, input)
	u.LastSeenAt = time.Now()
}

// Assessed marks the user as classified and moves them into lessons.
func (u *User) Assessed(level EnglishLevel, studyPlan string) {
	u.Level = level
	u.StudyPlan = studyPlan
	u.Advance(InputLevelAssessed)
}

// Validate checks the invariants a user row must hold.
func (u *User) Validate() error {
	if u.Phone == "" {
		return errors.New("phone is required")
	}
	switch u.State {
	case StateNew, StateEvaluating, StateActiveLesson, StateFeedback:
	default:
		return errors.New("invalid user state")
	}
	return nil
}

// Progress tracks completed exercises and running score for one user.
// CompletedCount is monotonically non-decreasing.
type Progress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CompletedCount int       `gorm:"not null;default:0" json:"completed_count"`
	Score          int       `gorm:"not null;default:0" json:"score"`
	UpdatedAt      time.Time `json:"updated_at"`
}
