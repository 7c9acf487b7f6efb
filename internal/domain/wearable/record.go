package wearable

import "time"

// Record is one day of synced wearable data for a user, unique per
// (UserID, Provider, Date). Re-syncing the same day upserts the same row.
type Record struct {
	ID            uint
	UserID        uint
	Provider      Provider
	Date          time.Time
	Metrics       DailyMetrics
	RecoveryScore int
	TrainingLoad  int
	Status        SyncStatus
	LastSyncedAt  time.Time
}

// NewRecord assembles a record from normalized metrics, computing the
// derived scores.
func NewRecord(userID uint, provider Provider, metrics DailyMetrics, syncedAt time.Time) *Record {
	return &Record{
		UserID:        userID,
		Provider:      provider,
		Date:          metrics.Date,
		Metrics:       metrics,
		RecoveryScore: RecoveryScore(&metrics),
		TrainingLoad:  TrainingLoad(&metrics),
		Status:        metrics.Status(),
		LastSyncedAt:  syncedAt,
	}
}

// NewFailedRecord marks a day whose fetch failed entirely. The day is still
// persisted so it is never silently dropped.
func NewFailedRecord(userID uint, provider Provider, date time.Time, syncedAt time.Time) *Record {
	return &Record{
		UserID:       userID,
		Provider:     provider,
		Date:         date,
		Metrics:      DailyMetrics{Date: date},
		Status:       SyncStatusFailed,
		LastSyncedAt: syncedAt,
	}
}
