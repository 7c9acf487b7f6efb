package usecases

import (
	"context"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// defaultWindowDays is the query window used when the caller gives neither
// dates nor a day count.
const defaultWindowDays = 2

type GetRecordsCommand struct {
	UserID uint
	// Provider filters to one provider when set.
	Provider string
	// StartDate and EndDate are inclusive YYYY-MM-DD bounds.
	StartDate string
	EndDate   string
	// Days is the most-recent-days shorthand, used when no dates are given.
	Days int
}

type GetRecordsResult struct {
	Records []*wearable.Record
}

type GetRecordsUseCase struct {
	records wearable.RecordRepository
	logger  logger.Interface
}

func NewGetRecordsUseCase(records wearable.RecordRepository, logger logger.Interface) *GetRecordsUseCase {
	return &GetRecordsUseCase{
		records: records,
		logger:  logger,
	}
}

func (uc *GetRecordsUseCase) Execute(ctx context.Context, cmd GetRecordsCommand) (*GetRecordsResult, error) {
	query := wearable.RecordQuery{}

	if cmd.Provider != "" {
		provider, err := wearable.ParseProvider(cmd.Provider)
		if err != nil {
			return nil, err
		}
		query.Provider = &provider
	}

	switch {
	case cmd.StartDate != "" || cmd.EndDate != "":
		if cmd.StartDate != "" {
			start, err := biztime.ParseDate(cmd.StartDate)
			if err != nil {
				return nil, errors.NewValidationError("start_date must be YYYY-MM-DD")
			}
			query.StartDate = &start
		}
		if cmd.EndDate != "" {
			end, err := biztime.ParseDate(cmd.EndDate)
			if err != nil {
				return nil, errors.NewValidationError("end_date must be YYYY-MM-DD")
			}
			query.EndDate = &end
		}
		if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
			return nil, errors.NewValidationError("end_date must not precede start_date")
		}
	default:
		days := cmd.Days
		if days <= 0 {
			days = defaultWindowDays
		}
		end := biztime.Today()
		start := end.AddDate(0, 0, -(days - 1))
		query.StartDate = &start
		query.EndDate = &end
	}

	records, err := uc.records.ListByUser(ctx, cmd.UserID, query)
	if err != nil {
		uc.logger.Errorw("failed to list wearable records",
			"user_id", cmd.UserID, "error", err)
		return nil, err
	}

	return &GetRecordsResult{Records: records}, nil
}
