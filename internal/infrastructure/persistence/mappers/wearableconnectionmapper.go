package mappers

import (
	"strings"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/persistence/models"
	"github.com/vitalink-io/vitalink/internal/shared/mapper"
)

// WearableConnectionMapper handles the conversion between domain entities and persistence models.
type WearableConnectionMapper interface {
	// ToModel converts a domain entity to a persistence model.
	ToModel(entity *wearable.Connection) *models.WearableConnectionModel

	// ToDomain converts a persistence model to a domain entity.
	ToDomain(model *models.WearableConnectionModel) *wearable.Connection

	// ToDomainList converts multiple persistence models to domain entities.
	ToDomainList(models []*models.WearableConnectionModel) []*wearable.Connection
}

// WearableConnectionMapperImpl is the concrete implementation of WearableConnectionMapper.
type WearableConnectionMapperImpl struct{}

// NewWearableConnectionMapper creates a new WearableConnectionMapper.
func NewWearableConnectionMapper() WearableConnectionMapper {
	return &WearableConnectionMapperImpl{}
}

// ToModel converts a domain entity to a persistence model. Scopes are stored
// space joined, matching the OAuth wire format.
func (m *WearableConnectionMapperImpl) ToModel(entity *wearable.Connection) *models.WearableConnectionModel {
	if entity == nil {
		return nil
	}
	return &models.WearableConnectionModel{
		ID:             entity.ID,
		UserID:         entity.UserID,
		Provider:       entity.Provider.String(),
		AccessToken:    entity.AccessToken,
		RefreshToken:   entity.RefreshToken,
		ExpiresAt:      entity.ExpiresAt,
		ExternalUserID: entity.ExternalUserID,
		Scopes:         strings.Join(entity.Scopes, " "),
		LastSyncAt:     entity.LastSyncAt,
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}

// ToDomain converts a persistence model to a domain entity.
func (m *WearableConnectionMapperImpl) ToDomain(model *models.WearableConnectionModel) *wearable.Connection {
	if model == nil {
		return nil
	}
	var scopes []string
	if model.Scopes != "" {
		scopes = strings.Fields(model.Scopes)
	}
	return &wearable.Connection{
		ID:             model.ID,
		UserID:         model.UserID,
		Provider:       wearable.Provider(model.Provider),
		AccessToken:    model.AccessToken,
		RefreshToken:   model.RefreshToken,
		ExpiresAt:      model.ExpiresAt,
		ExternalUserID: model.ExternalUserID,
		Scopes:         scopes,
		LastSyncAt:     model.LastSyncAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// ToDomainList converts multiple persistence models to domain entities.
func (m *WearableConnectionMapperImpl) ToDomainList(items []*models.WearableConnectionModel) []*wearable.Connection {
	return mapper.MapSlicePtr(items, m.ToDomain)
}
