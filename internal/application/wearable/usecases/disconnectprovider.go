package usecases

import (
	"context"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// ConnectionInvalidator drops the cached connection for a pair.
type ConnectionInvalidator interface {
	Invalidate(ctx context.Context, userID uint, provider wearable.Provider)
}

type DisconnectProviderCommand struct {
	UserID   uint
	Provider string
}

type DisconnectProviderUseCase struct {
	connections wearable.ConnectionRepository
	cache       ConnectionInvalidator
	logger      logger.Interface
}

func NewDisconnectProviderUseCase(
	connections wearable.ConnectionRepository,
	cache ConnectionInvalidator,
	logger logger.Interface,
) *DisconnectProviderUseCase {
	return &DisconnectProviderUseCase{
		connections: connections,
		cache:       cache,
		logger:      logger,
	}
}

// Execute removes the stored connection and its cached copy. Synced records
// are kept; only the credentials go.
func (uc *DisconnectProviderUseCase) Execute(ctx context.Context, cmd DisconnectProviderCommand) error {
	provider, err := wearable.ParseProvider(cmd.Provider)
	if err != nil {
		return err
	}

	conn, err := uc.connections.GetByUserAndProvider(ctx, cmd.UserID, provider)
	if err != nil {
		return err
	}
	if conn == nil {
		return errors.NewNotConnectedError(provider.String())
	}

	if err := uc.connections.Delete(ctx, cmd.UserID, provider); err != nil {
		uc.logger.Errorw("failed to delete connection",
			"provider", provider.String(), "user_id", cmd.UserID, "error", err)
		return err
	}
	uc.cache.Invalidate(ctx, cmd.UserID, provider)

	uc.logger.Infow("provider disconnected",
		"provider", provider.String(), "user_id", cmd.UserID)
	return nil
}
