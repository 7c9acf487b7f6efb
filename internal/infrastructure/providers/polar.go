package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
)

// polarAdapter talks to the Polar AccessLink API. Polar exposes fewer daily
// categories than Fitbit: sleep, nightly recharge (HRV, breathing, night
// heart rate) and exercises. Steps and SpO2 are not available.
type polarAdapter struct {
	cfg  *Config
	http *RetryingClient
}

func newPolarAdapter(cfg *Config, client *RetryingClient) *polarAdapter {
	return &polarAdapter{cfg: cfg, http: client}
}

func (a *polarAdapter) Provider() wearable.Provider {
	return wearable.ProviderPolar
}

type polarSleepResponse struct {
	Date                      string `json:"date"`
	LightSleep                int    `json:"light_sleep"`
	DeepSleep                 int    `json:"deep_sleep"`
	RemSleep                  int    `json:"rem_sleep"`
	TotalInterruptionDuration int    `json:"total_interruption_duration"`
	SleepScore                int    `json:"sleep_score"`
}

type polarRechargeResponse struct {
	Date             string  `json:"date"`
	HeartRateAvg     int     `json:"heart_rate_avg"`
	BeatToBeatAvg    float64 `json:"beat_to_beat_avg"`
	BreathingRateAvg float64 `json:"breathing_rate_avg"`
}

type polarExercise struct {
	StartTime  string  `json:"start_time"`
	Calories   int     `json:"calories"`
	Distance   float64 `json:"distance"`
	Duration   string  `json:"duration"`
	CardioLoad float64 `json:"cardio_load"`
}

func (a *polarAdapter) FetchDailyMetrics(ctx context.Context, accessToken string, date time.Time) (*wearable.DailyMetrics, error) {
	day := biztime.FormatDate(date)
	metrics := &wearable.DailyMetrics{Date: biztime.DayOf(date)}

	var failedMu sync.Mutex
	failed := 0

	categories := []struct {
		name  string
		fetch func(ctx context.Context) error
	}{
		{"sleep", func(ctx context.Context) error { return a.fetchSleep(ctx, accessToken, day, metrics) }},
		{"recharge", func(ctx context.Context) error { return a.fetchRecharge(ctx, accessToken, day, metrics) }},
		{"exercises", func(ctx context.Context) error { return a.fetchExercises(ctx, accessToken, date, metrics) }},
	}
	metrics.CategoriesRequested = len(categories)

	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		g.Go(func() error {
			err := cat.fetch(gctx)
			if err == nil {
				return nil
			}
			fatal, countAsFailure := classifyCategoryErr(wearable.ProviderPolar, err)
			if fatal != nil {
				return fatal
			}
			if countAsFailure {
				failedMu.Lock()
				failed++
				failedMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.CategoriesFailed = failed
	return metrics, nil
}

func (a *polarAdapter) fetchSleep(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp polarSleepResponse
	url := fmt.Sprintf("%s/users/sleep/%s", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if resp.Date == "" {
		return nil
	}

	// Polar reports stage durations in seconds and no efficiency figure;
	// derive efficiency from time asleep vs. interruptions.
	asleep := (resp.LightSleep + resp.DeepSleep + resp.RemSleep) / 60
	awake := resp.TotalInterruptionDuration / 60
	efficiency := 0
	if asleep+awake > 0 {
		efficiency = asleep * 100 / (asleep + awake)
	}

	m.Sleep = &wearable.SleepSummary{
		TotalMinutes: asleep,
		Efficiency:   efficiency,
		DeepMinutes:  resp.DeepSleep / 60,
		LightMinutes: resp.LightSleep / 60,
		REMMinutes:   resp.RemSleep / 60,
		AwakeMinutes: awake,
	}
	return nil
}

func (a *polarAdapter) fetchRecharge(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp polarRechargeResponse
	url := fmt.Sprintf("%s/users/nightly-recharge/%s", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if resp.Date == "" {
		return nil
	}

	if resp.HeartRateAvg > 0 {
		// Night average heart rate is the closest Polar signal to a
		// resting heart rate.
		rhr := resp.HeartRateAvg
		m.RestingHeartRate = &rhr
	}
	if resp.BeatToBeatAvg > 0 {
		hrv := resp.BeatToBeatAvg
		m.HRV = &hrv
	}
	if resp.BreathingRateAvg > 0 {
		rate := resp.BreathingRateAvg
		m.BreathingRate = &rate
	}
	return nil
}

func (a *polarAdapter) fetchExercises(ctx context.Context, token string, date time.Time, m *wearable.DailyMetrics) error {
	var exercises []polarExercise
	url := fmt.Sprintf("%s/exercises", a.cfg.APIBase)
	if err := a.http.GetJSON(ctx, url, token, &exercises); err != nil {
		return err
	}

	day := biztime.DayOf(date)
	var calories, minutes int
	var distance, cardioLoad float64
	found := false

	for _, ex := range exercises {
		start, err := time.Parse("2006-01-02T15:04:05", ex.StartTime)
		if err != nil || !biztime.DayOf(start).Equal(day) {
			continue
		}
		found = true
		calories += ex.Calories
		distance += ex.Distance
		cardioLoad += ex.CardioLoad
		minutes += int(parseISODuration(ex.Duration).Minutes())
	}
	if !found {
		return nil
	}

	m.Calories = &calories
	m.ActiveMinutes = &minutes
	m.DistanceMeters = &distance
	m.CardioLoad = &cardioLoad
	return nil
}

// parseISODuration parses the PT#H#M#S durations Polar uses. Unparseable
// input yields zero.
func parseISODuration(s string) time.Duration {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "PT")
	var total time.Duration
	num := ""
	for _, r := range s {
		switch {
		case (r >= '0' && r <= '9') || r == '.':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0
			}
			switch r {
			case 'H':
				total += time.Duration(v * float64(time.Hour))
			case 'M':
				total += time.Duration(v * float64(time.Minute))
			case 'S':
				total += time.Duration(v * float64(time.Second))
			}
			num = ""
		default:
			return 0
		}
	}
	return total
}
