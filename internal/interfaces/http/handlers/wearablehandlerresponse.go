package handlers

import (
	"time"

	"github.com/vitalink-io/vitalink/internal/application/wearable/usecases"
	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
)

type ProviderStatusDTO struct {
	Provider   string     `json:"provider"`
	Configured bool       `json:"configured"`
	Connected  bool       `json:"connected"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

type RecordDTO struct {
	Provider      string                `json:"provider"`
	Date          string                `json:"date"`
	RecoveryScore int                   `json:"recovery_score"`
	TrainingLoad  int                   `json:"training_load"`
	Status        string                `json:"status"`
	Metrics       wearable.DailyMetrics `json:"metrics"`
	LastSyncedAt  time.Time             `json:"last_synced_at"`
}

type SyncResultDTO struct {
	Provider   string     `json:"provider"`
	SyncID     string     `json:"sync_id"`
	SyncedAt   time.Time  `json:"synced_at"`
	DaysSynced int        `json:"days_synced"`
	DaysFailed int        `json:"days_failed"`
	Latest     *RecordDTO `json:"latest,omitempty"`
}

func toProviderStatusDTOs(statuses []usecases.ProviderStatus) []ProviderStatusDTO {
	out := make([]ProviderStatusDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ProviderStatusDTO{
			Provider:   s.Provider,
			Configured: s.Configured,
			Connected:  s.Connected,
			LastSyncAt: s.LastSyncAt,
		})
	}
	return out
}

func toRecordDTO(r *wearable.Record) *RecordDTO {
	if r == nil {
		return nil
	}
	return &RecordDTO{
		Provider:      r.Provider.String(),
		Date:          biztime.FormatDate(r.Date),
		RecoveryScore: r.RecoveryScore,
		TrainingLoad:  r.TrainingLoad,
		Status:        string(r.Status),
		Metrics:       r.Metrics,
		LastSyncedAt:  r.LastSyncedAt,
	}
}

func toRecordDTOs(records []*wearable.Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		if dto := toRecordDTO(r); dto != nil {
			out = append(out, *dto)
		}
	}
	return out
}

func toSyncResultDTO(r *usecases.SyncProviderResult) SyncResultDTO {
	return SyncResultDTO{
		Provider:   r.Provider,
		SyncID:     r.SyncID,
		SyncedAt:   r.SyncedAt,
		DaysSynced: r.DaysSynced,
		DaysFailed: r.DaysFailed,
		Latest:     toRecordDTO(r.Latest),
	}
}
