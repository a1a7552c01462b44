package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
)

// AudioAssetRepository persists audio asset metadata.
type AudioAssetRepository struct {
	db *gorm.DB
}

// Ensure AudioAssetRepository implements the repository interface
var _ repositories.AudioAssetRepository = (*AudioAssetRepository)(nil)

// NewAudioAssetRepository creates a new PostgreSQL audio asset repository.
func NewAudioAssetRepository(db *gorm.DB) *AudioAssetRepository {
	return &AudioAssetRepository{db: db}
}

// Create implements repositories.AudioAssetRepository.
func (r *AudioAssetRepository) Create(ctx context.Context, asset *entities.AudioAsset) error {
	if asset == nil || asset.Filename == "" {
		return &domain.PersistenceError{Op: "create_audio_asset", Err: errors.New("asset filename is required")}
	}
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return &domain.PersistenceError{Op: "create_audio_asset", Err: err}
	}
	return nil
}

// GetByFilename implements repositories.AudioAssetRepository.
func (r *AudioAssetRepository) GetByFilename(ctx context.Context, filename string) (*entities.AudioAsset, error) {
	var asset entities.AudioAsset
	err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_audio_asset", Err: err}
	}
	return &asset, nil
}
