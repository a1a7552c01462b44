package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
)

// ConversationRepository persists conversations and their turns.
type ConversationRepository struct {
	db *gorm.DB
}

// Ensure ConversationRepository implements the repository interface
var _ repositories.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new PostgreSQL conversation repository.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Active implements repositories.ConversationRepository.
func (r *ConversationRepository) Active(ctx context.Context, userID uint) (*entities.Conversation, error) {
	var actives []entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, entities.ConversationActive).
		Order("started_at DESC").
		Find(&actives).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "active_conversation", Err: err}
	}

	if len(actives) == 0 {
		conv := entities.NewConversation(userID)
		if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
			return nil, &domain.PersistenceError{Op: "create_conversation", Err: err}
		}
		return conv, nil
	}

	// Close duplicate actives, keep the most recent.
	if len(actives) > 1 {
		ids := make([]uint, 0, len(actives)-1)
		for _, c := range actives[1:] {
			ids = append(ids, c.ID)
		}
		err := r.db.WithContext(ctx).Model(&entities.Conversation{}).
			Where("id IN ?", ids).
			Update("status", entities.ConversationCompleted).Error
		if err != nil {
			return nil, &domain.PersistenceError{Op: "close_duplicate_conversations", Err: err}
		}
	}

	return &actives[0], nil
}

// AppendTurn implements repositories.ConversationRepository.
func (r *ConversationRepository) AppendTurn(ctx context.Context, turn *entities.Turn) error {
	if turn == nil {
		return &domain.PersistenceError{Op: "append_turn", Err: errors.New("turn cannot be nil")}
	}
	if err := turn.Validate(); err != nil {
		return &domain.PersistenceError{Op: "append_turn", Err: err}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(turn).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Conversation{}).
			Where("id = ?", turn.ConversationID).
			Update("last_message_at", turn.CreatedAt).Error
	})
	if err != nil {
		return &domain.PersistenceError{Op: "append_turn", Err: err}
	}
	return nil
}

// History implements repositories.ConversationRepository. Turns come back
// oldest to newest; with a limit the newest turns win, so the slice is the
// tail of the conversation.
func (r *ConversationRepository) History(ctx context.Context, conversationID uint, limit int) ([]entities.Turn, error) {
	query := r.db.WithContext(ctx).
		Preload("AudioAsset").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var turns []entities.Turn
	if err := query.Find(&turns).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "load_history", Err: err}
	}

	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// SeenProviderMessage implements repositories.ConversationRepository.
func (r *ConversationRepository) SeenProviderMessage(ctx context.Context, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Turn{}).
		Where("provider_message_id = ?", providerMessageID).
		Count(&count).Error
	if err != nil {
		return false, &domain.PersistenceError{Op: "dedup_lookup", Err: err}
	}
	return count > 0, nil
}

// CompleteAll implements repositories.ConversationRepository.
func (r *ConversationRepository) CompleteAll(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&entities.Conversation{}).
		Where("user_id = ? AND status = ?", userID, entities.ConversationActive).
		Update("status", entities.ConversationCompleted).Error
	if err != nil {
		return &domain.PersistenceError{Op: "complete_conversations", Err: err}
	}
	return nil
}

// List implements repositories.ConversationRepository.
func (r *ConversationRepository) List(ctx context.Context, status entities.ConversationStatus) ([]repositories.ConversationSummary, error) {
	query := r.db.WithContext(ctx).Model(&entities.Conversation{}).Order("started_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var conversations []entities.Conversation
	if err := query.Find(&conversations).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "list_conversations", Err: err}
	}

	summaries := make([]repositories.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		var user entities.User
		if err := r.db.WithContext(ctx).First(&user, conv.UserID).Error; err != nil {
			return nil, &domain.PersistenceError{Op: "list_conversations", Err: err}
		}
		var count int64
		if err := r.db.WithContext(ctx).Model(&entities.Turn{}).
			Where("conversation_id = ?", conv.ID).Count(&count).Error; err != nil {
			return nil, &domain.PersistenceError{Op: "list_conversations", Err: err}
		}
		summaries = append(summaries, repositories.ConversationSummary{
			Conversation: conv,
			UserPhone:    user.Phone,
			UserName:     user.Name,
			UserLevel:    user.Level,
			TurnCount:    count,
		})
	}
	return summaries, nil
}

// GetByID implements repositories.ConversationRepository.
func (r *ConversationRepository) GetByID(ctx context.Context, id uint) (*entities.Conversation, error) {
	var conv entities.Conversation
	err := r.db.WithContext(ctx).First(&conv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_conversation", Err: err}
	}
	return &conv, nil
}

// Reset implements repositories.ConversationRepository. The conversation is
// closed and its owner returns to the initial state for a fresh assessment.
func (r *ConversationRepository) Reset(ctx context.Context, conversationID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv entities.Conversation
		if err := tx.First(&conv, conversationID).Error; err != nil {
			return err
		}
		conv.Status = entities.ConversationReset
		if err := tx.Save(&conv).Error; err != nil {
			return err
		}
		return tx.Model(&entities.User{}).
			Where("id = ?", conv.UserID).
			Updates(map[string]interface{}{
				"level":         "",
				"state":         entities.StateNew,
				"study_plan":    "",
				"answers_given": 0,
			}).Error
	})
	if err != nil {
		return &domain.PersistenceError{Op: "reset_conversation", Err: err}
	}
	return nil
}
