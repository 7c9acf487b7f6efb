package usecases

import (
	"context"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// CodeExchanger trades a callback code for tokens and persists the
// connection.
type CodeExchanger interface {
	Exchange(ctx context.Context, provider wearable.Provider, state, code string) (*wearable.Connection, error)
}

type CompleteAuthorizationCommand struct {
	Provider string
	State    string
	Code     string
}

type CompleteAuthorizationResult struct {
	Provider       string
	UserID         uint
	ExternalUserID string
}

type CompleteAuthorizationUseCase struct {
	exchanger CodeExchanger
	logger    logger.Interface
}

func NewCompleteAuthorizationUseCase(exchanger CodeExchanger, logger logger.Interface) *CompleteAuthorizationUseCase {
	return &CompleteAuthorizationUseCase{
		exchanger: exchanger,
		logger:    logger,
	}
}

func (uc *CompleteAuthorizationUseCase) Execute(ctx context.Context, cmd CompleteAuthorizationCommand) (*CompleteAuthorizationResult, error) {
	provider, err := wearable.ParseProvider(cmd.Provider)
	if err != nil {
		return nil, err
	}

	conn, err := uc.exchanger.Exchange(ctx, provider, cmd.State, cmd.Code)
	if err != nil {
		uc.logger.Warnw("authorization callback failed",
			"provider", provider.String(), "error", err)
		return nil, err
	}

	return &CompleteAuthorizationResult{
		Provider:       provider.String(),
		UserID:         conn.UserID,
		ExternalUserID: conn.ExternalUserID,
	}, nil
}
