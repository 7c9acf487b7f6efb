package wearable

import "time"

// SyncStatus classifies how completely a day's metrics were fetched.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// HeartRateZone is one provider-reported heart-rate zone with the minutes
// spent in it.
type HeartRateZone struct {
	Name    string `json:"name"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Minutes int    `json:"minutes"`
}

// SleepSummary is the normalized nightly sleep breakdown.
type SleepSummary struct {
	TotalMinutes int `json:"total_minutes"`
	Efficiency   int `json:"efficiency"`
	DeepMinutes  int `json:"deep_minutes"`
	LightMinutes int `json:"light_minutes"`
	REMMinutes   int `json:"rem_minutes"`
	AwakeMinutes int `json:"awake_minutes"`
}

// DailyMetrics is the provider-independent shape adapters normalize into.
// Every signal is optional: a nil field means the category was unavailable
// or its fetch failed, and the scoring renormalizes around it.
type DailyMetrics struct {
	Date time.Time `json:"date"`

	Steps             *int     `json:"steps,omitempty"`
	DistanceMeters    *float64 `json:"distance_meters,omitempty"`
	Calories          *int     `json:"calories,omitempty"`
	ActiveMinutes     *int     `json:"active_minutes,omitempty"`
	ActiveZoneMinutes *int     `json:"active_zone_minutes,omitempty"`
	CardioLoad        *float64 `json:"cardio_load,omitempty"`

	RestingHeartRate *int            `json:"resting_heart_rate,omitempty"`
	HeartRateZones   []HeartRateZone `json:"heart_rate_zones,omitempty"`

	Sleep *SleepSummary `json:"sleep,omitempty"`

	HRV           *float64 `json:"hrv,omitempty"`
	BreathingRate *float64 `json:"breathing_rate,omitempty"`
	SpO2          *float64 `json:"spo2,omitempty"`
	CardioFitness *float64 `json:"cardio_fitness,omitempty"`

	// Fetch accounting, set by the adapter.
	CategoriesRequested int `json:"categories_requested"`
	CategoriesFailed    int `json:"categories_failed"`
}

// Status derives the day's sync status from the fetch accounting: all
// categories failing is a failed day, any category failing is partial.
func (m *DailyMetrics) Status() SyncStatus {
	switch {
	case m.CategoriesRequested > 0 && m.CategoriesFailed >= m.CategoriesRequested:
		return SyncStatusFailed
	case m.CategoriesFailed > 0:
		return SyncStatusPartial
	default:
		return SyncStatusSuccess
	}
}
