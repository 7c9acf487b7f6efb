package mappers

import (
	"encoding/json"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/persistence/models"
	"github.com/vitalink-io/vitalink/internal/shared/mapper"
)

// WearableRecordMapper handles the conversion between domain entities and persistence models.
type WearableRecordMapper interface {
	// ToModel converts a domain entity to a persistence model.
	ToModel(entity *wearable.Record) (*models.WearableRecordModel, error)

	// ToDomain converts a persistence model to a domain entity.
	ToDomain(model *models.WearableRecordModel) *wearable.Record

	// ToDomainList converts multiple persistence models to domain entities.
	ToDomainList(models []*models.WearableRecordModel) []*wearable.Record
}

// WearableRecordMapperImpl is the concrete implementation of WearableRecordMapper.
type WearableRecordMapperImpl struct{}

// NewWearableRecordMapper creates a new WearableRecordMapper.
func NewWearableRecordMapper() WearableRecordMapper {
	return &WearableRecordMapperImpl{}
}

// ToModel converts a domain entity to a persistence model. The normalized
// metrics are stored as a JSON document.
func (m *WearableRecordMapperImpl) ToModel(entity *wearable.Record) (*models.WearableRecordModel, error) {
	if entity == nil {
		return nil, nil
	}
	metrics, err := json.Marshal(entity.Metrics)
	if err != nil {
		return nil, err
	}
	return &models.WearableRecordModel{
		ID:            entity.ID,
		UserID:        entity.UserID,
		Provider:      entity.Provider.String(),
		Date:          entity.Date,
		Metrics:       metrics,
		RecoveryScore: entity.RecoveryScore,
		TrainingLoad:  entity.TrainingLoad,
		Status:        string(entity.Status),
		LastSyncedAt:  entity.LastSyncedAt,
	}, nil
}

// ToDomain converts a persistence model to a domain entity. A metrics
// document that no longer parses yields an empty metrics struct rather than
// an error; the scores and status columns remain authoritative.
func (m *WearableRecordMapperImpl) ToDomain(model *models.WearableRecordModel) *wearable.Record {
	if model == nil {
		return nil
	}
	var metrics wearable.DailyMetrics
	if len(model.Metrics) > 0 {
		_ = json.Unmarshal(model.Metrics, &metrics)
	}
	return &wearable.Record{
		ID:            model.ID,
		UserID:        model.UserID,
		Provider:      wearable.Provider(model.Provider),
		Date:          model.Date,
		Metrics:       metrics,
		RecoveryScore: model.RecoveryScore,
		TrainingLoad:  model.TrainingLoad,
		Status:        wearable.SyncStatus(model.Status),
		LastSyncedAt:  model.LastSyncedAt,
	}
}

// ToDomainList converts multiple persistence models to domain entities.
func (m *WearableRecordMapperImpl) ToDomainList(items []*models.WearableRecordModel) []*wearable.Record {
	return mapper.MapSlicePtr(items, m.ToDomain)
}
