package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
)

// UserRepository persists users and their progress records.
type UserRepository struct {
	db *gorm.DB
}

// Ensure UserRepository implements the repository interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate implements repositories.UserRepository. The insert is guarded
// by the unique phone index, so two racing first messages resolve to a
// single user row.
func (r *UserRepository) GetOrCreate(ctx context.Context, phone string) (*entities.User, error) {
	if phone == "" {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: errors.New("phone cannot be empty")}
	}

	var user entities.User
	err := r.db.WithContext(ctx).Preload("Progress").Where("phone = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: err}
	}

	created := entities.NewUser(phone)
	err = r.db.WithContext(ctx).Omit("Progress").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoNothing: true,
	}).Create(created).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: err}
	}

	// Re-read so a lost race still returns the winning row.
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: err}
	}

	// The progress row must be inserted explicitly; a zero-value has-one is
	// not persisted alongside the conflict-guarded user insert. The user_id
	// unique index dedupes racing inserts.
	progress := entities.Progress{UserID: user.ID, UpdatedAt: time.Now()}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&progress).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: err}
	}

	if err := r.db.WithContext(ctx).Preload("Progress").Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "get_or_create_user", Err: err}
	}
	return &user, nil
}

// GetByPhone implements repositories.UserRepository.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Preload("Progress").Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_user", Err: err}
	}
	return &user, nil
}

// Update implements repositories.UserRepository.
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if user == nil || user.ID == 0 {
		return &domain.PersistenceError{Op: "update_user", Err: errors.New("user must be persisted before update")}
	}
	if err := user.Validate(); err != nil {
		return &domain.PersistenceError{Op: "update_user", Err: err}
	}
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return &domain.PersistenceError{Op: "update_user", Err: err}
	}
	return nil
}

// IncrementProgress implements repositories.UserRepository. The update runs
// as a single transactional row update so concurrent requests never lose
// increments, and a negative delta cannot lower the completion count.
func (r *UserRepository) IncrementProgress(ctx context.Context, userID uint, completedDelta, scoreDelta int) error {
	if completedDelta < 0 {
		completedDelta = 0
	}
	tx := r.db.WithContext(ctx).Model(&entities.Progress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"completed_count": gorm.Expr("completed_count + ?", completedDelta),
			"score":           gorm.Expr("score + ?", scoreDelta),
			"updated_at":      time.Now(),
		})
	if tx.Error != nil {
		return &domain.PersistenceError{Op: "increment_progress", Err: tx.Error}
	}
	if tx.RowsAffected == 0 {
		return &domain.PersistenceError{
			Op:  "increment_progress",
			Err: fmt.Errorf("no progress row for user %d", userID),
		}
	}
	return nil
}
