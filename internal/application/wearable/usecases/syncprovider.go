package usecases

import (
	"context"
	"time"

	appsync "github.com/vitalink-io/vitalink/internal/application/wearable/sync"
	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// SyncRunner executes a full sync run for one (user, provider) pair.
type SyncRunner interface {
	Run(ctx context.Context, userID uint, provider wearable.Provider, days int) (*appsync.Result, error)
}

type SyncProviderCommand struct {
	UserID   uint
	Provider string
	// Days overrides the provider's configured sync window when positive.
	Days int
}

type SyncProviderResult struct {
	Provider   string
	SyncID     string
	SyncedAt   time.Time
	DaysSynced int
	DaysFailed int
	// Latest is the most recent day's record.
	Latest *wearable.Record
}

type SyncProviderUseCase struct {
	runner SyncRunner
	logger logger.Interface
}

func NewSyncProviderUseCase(runner SyncRunner, logger logger.Interface) *SyncProviderUseCase {
	return &SyncProviderUseCase{
		runner: runner,
		logger: logger,
	}
}

func (uc *SyncProviderUseCase) Execute(ctx context.Context, cmd SyncProviderCommand) (*SyncProviderResult, error) {
	provider, err := wearable.ParseProvider(cmd.Provider)
	if err != nil {
		return nil, err
	}

	run, err := uc.runner.Run(ctx, cmd.UserID, provider, cmd.Days)
	if err != nil {
		return nil, err
	}

	result := &SyncProviderResult{
		Provider:   provider.String(),
		SyncID:     run.SyncID,
		SyncedAt:   run.SyncedAt,
		DaysSynced: run.DaysSynced,
		DaysFailed: run.DaysFailed,
	}
	if len(run.Records) > 0 {
		result.Latest = run.Records[0]
	}
	return result, nil
}
