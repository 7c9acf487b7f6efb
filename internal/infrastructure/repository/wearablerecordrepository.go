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

// WearableRecordRepository implements the wearable.RecordRepository interface
// using GORM with Model/Mapper separation.
type WearableRecordRepository struct {
	db     *gorm.DB
	mapper mappers.WearableRecordMapper
}

// NewWearableRecordRepository creates a new WearableRecordRepository.
func NewWearableRecordRepository(db *gorm.DB) wearable.RecordRepository {
	return &WearableRecordRepository{
		db:     db,
		mapper: mappers.NewWearableRecordMapper(),
	}
}

// Upsert converges on one row per (user_id, provider, date), replacing the
// metrics document and derived scores on conflict.
func (r *WearableRecordRepository) Upsert(ctx context.Context, record *wearable.Record) error {
	model, err := r.mapper.ToModel(record)
	if err != nil {
		return fmt.Errorf("failed to encode wearable record: %w", err)
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"metrics", "recovery_score", "training_load",
			"status", "last_synced_at", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert wearable record: %w", err)
	}
	record.ID = model.ID
	return nil
}

func (r *WearableRecordRepository) ListByUser(ctx context.Context, userID uint, q wearable.RecordQuery) ([]*wearable.Record, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if q.Provider != nil {
		query = query.Where("provider = ?", q.Provider.String())
	}
	if q.StartDate != nil {
		query = query.Where("date >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		query = query.Where("date <= ?", *q.EndDate)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var recordModels []*models.WearableRecordModel
	if err := query.Order("date DESC, provider").Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list wearable records: %w", err)
	}
	return r.mapper.ToDomainList(recordModels), nil
}
