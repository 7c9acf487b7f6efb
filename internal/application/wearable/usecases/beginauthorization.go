package usecases

import (
	"context"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// AuthorizationStarter builds a provider consent URL with stored CSRF state.
type AuthorizationStarter interface {
	AuthorizationURL(ctx context.Context, userID uint, provider wearable.Provider) (string, error)
}

type BeginAuthorizationCommand struct {
	UserID   uint
	Provider string
}

type BeginAuthorizationResult struct {
	AuthURL string
}

type BeginAuthorizationUseCase struct {
	authorizer AuthorizationStarter
	logger     logger.Interface
}

func NewBeginAuthorizationUseCase(authorizer AuthorizationStarter, logger logger.Interface) *BeginAuthorizationUseCase {
	return &BeginAuthorizationUseCase{
		authorizer: authorizer,
		logger:     logger,
	}
}

func (uc *BeginAuthorizationUseCase) Execute(ctx context.Context, cmd BeginAuthorizationCommand) (*BeginAuthorizationResult, error) {
	provider, err := wearable.ParseProvider(cmd.Provider)
	if err != nil {
		return nil, err
	}

	authURL, err := uc.authorizer.AuthorizationURL(ctx, cmd.UserID, provider)
	if err != nil {
		uc.logger.Warnw("failed to build authorization URL",
			"provider", provider.String(), "user_id", cmd.UserID, "error", err)
		return nil, err
	}

	return &BeginAuthorizationResult{AuthURL: authURL}, nil
}
