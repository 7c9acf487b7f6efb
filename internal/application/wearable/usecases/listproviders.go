package usecases

import (
	"context"
	"time"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// CredentialChecker reports whether client credentials are deployed for a
// provider.
type CredentialChecker interface {
	IsConfigured(provider wearable.Provider) bool
}

type ListProvidersCommand struct {
	UserID uint
}

// ProviderStatus is one provider's availability for the requesting user.
type ProviderStatus struct {
	Provider   string
	Configured bool
	Connected  bool
	LastSyncAt *time.Time
}

type ListProvidersResult struct {
	Providers []ProviderStatus
}

type ListProvidersUseCase struct {
	registry    CredentialChecker
	connections wearable.ConnectionRepository
	logger      logger.Interface
}

func NewListProvidersUseCase(
	registry CredentialChecker,
	connections wearable.ConnectionRepository,
	logger logger.Interface,
) *ListProvidersUseCase {
	return &ListProvidersUseCase{
		registry:    registry,
		connections: connections,
		logger:      logger,
	}
}

func (uc *ListProvidersUseCase) Execute(ctx context.Context, cmd ListProvidersCommand) (*ListProvidersResult, error) {
	result := &ListProvidersResult{}

	for _, provider := range wearable.AllProviders() {
		status := ProviderStatus{
			Provider:   provider.String(),
			Configured: uc.registry.IsConfigured(provider),
		}

		conn, err := uc.connections.GetByUserAndProvider(ctx, cmd.UserID, provider)
		if err != nil {
			uc.logger.Errorw("failed to check connection",
				"provider", provider.String(), "user_id", cmd.UserID, "error", err)
			return nil, err
		}
		if conn != nil {
			status.Connected = true
			status.LastSyncAt = conn.LastSyncAt
		}

		result.Providers = append(result.Providers, status)
	}

	return result, nil
}
