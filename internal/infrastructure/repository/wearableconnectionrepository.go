package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/persistence/mappers"
	"github.com/vitalink-io/vitalink/internal/infrastructure/persistence/models"
)

// WearableConnectionRepository implements the wearable.ConnectionRepository
// interface using GORM with Model/Mapper separation.
type WearableConnectionRepository struct {
	db     *gorm.DB
	mapper mappers.WearableConnectionMapper
}

// NewWearableConnectionRepository creates a new WearableConnectionRepository.
func NewWearableConnectionRepository(db *gorm.DB) wearable.ConnectionRepository {
	return &WearableConnectionRepository{
		db:     db,
		mapper: mappers.NewWearableConnectionMapper(),
	}
}

func (r *WearableConnectionRepository) GetByUserAndProvider(ctx context.Context, userID uint, provider wearable.Provider) (*wearable.Connection, error) {
	var model models.WearableConnectionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider.String()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wearable connection: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

// Upsert converges on one row per (user_id, provider), replacing the token
// columns on conflict.
func (r *WearableConnectionRepository) Upsert(ctx context.Context, conn *wearable.Connection) error {
	model := r.mapper.ToModel(conn)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at",
			"external_user_id", "scopes", "last_sync_at", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert wearable connection: %w", err)
	}
	// Sync auto-generated ID back to the domain entity
	conn.ID = model.ID
	return nil
}

func (r *WearableConnectionRepository) Delete(ctx context.Context, userID uint, provider wearable.Provider) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider.String()).
		Delete(&models.WearableConnectionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete wearable connection: %w", result.Error)
	}
	return nil
}

func (r *WearableConnectionRepository) ListAll(ctx context.Context) ([]*wearable.Connection, error) {
	var connectionModels []*models.WearableConnectionModel
	err := r.db.WithContext(ctx).Order("user_id, provider").Find(&connectionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wearable connections: %w", err)
	}
	return r.mapper.ToDomainList(connectionModels), nil
}
