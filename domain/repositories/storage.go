package repositories

import (
	"context"

	"github.com/professorai/server/domain/entities"
)

// UserRepository defines data access methods for users and their progress.
type UserRepository interface {
	// GetOrCreate returns the user for a phone number, creating a fresh
	// record in the initial state on first contact.
	GetOrCreate(ctx context.Context, phone string) (*entities.User, error)
	GetByPhone(ctx context.Context, phone string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	// IncrementProgress bumps the completion count and score in a single
	// transactional row update. The completion count never decreases.
	IncrementProgress(ctx context.Context, userID uint, completedDelta, scoreDelta int) error
}

// ConversationRepository defines data access methods for conversations and
// their turns.
type ConversationRepository interface {
	// Active returns the user's active conversation, creating one if none
	// exists. Duplicate actives left by earlier bugs or races are closed,
	// keeping the most recent.
	Active(ctx context.Context, userID uint) (*entities.Conversation, error)
	// AppendTurn persists a turn. Turns are append-only.
	AppendTurn(ctx context.Context, turn *entities.Turn) error
	// History returns up to limit turns for the conversation ordered oldest
	// to newest.
	History(ctx context.Context, conversationID uint, limit int) ([]entities.Turn, error)
	// SeenProviderMessage reports whether an inbound provider message id has
	// already been persisted, which makes webhook redelivery idempotent.
	SeenProviderMessage(ctx context.Context, providerMessageID string) (bool, error)
	// CompleteAll closes every active conversation for the user.
	CompleteAll(ctx context.Context, userID uint) error
	// List returns conversations, optionally filtered by status, newest
	// first, with turn counts populated.
	List(ctx context.Context, status entities.ConversationStatus) ([]ConversationSummary, error)
	GetByID(ctx context.Context, id uint) (*entities.Conversation, error)
	Reset(ctx context.Context, conversationID uint) error
}

// ConversationSummary is the admin listing projection of a conversation.
type ConversationSummary struct {
	Conversation entities.Conversation
	UserPhone    string
	UserName     string
	UserLevel    entities.EnglishLevel
	TurnCount    int64
}

// AudioAssetRepository defines data access methods for stored audio files.
type AudioAssetRepository interface {
	Create(ctx context.Context, asset *entities.AudioAsset) error
	GetByFilename(ctx context.Context, filename string) (*entities.AudioAsset, error)
}
