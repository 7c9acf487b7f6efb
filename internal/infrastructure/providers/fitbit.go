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

// fitbitAdapter talks to the Fitbit Web API. Each metric category is a
// separate dated endpoint, so one day costs several calls; they run in
// parallel and a failed category degrades to a nil field.
type fitbitAdapter struct {
	cfg  *Config
	http *RetryingClient
}

func newFitbitAdapter(cfg *Config, client *RetryingClient) *fitbitAdapter {
	return &fitbitAdapter{cfg: cfg, http: client}
}

func (a *fitbitAdapter) Provider() wearable.Provider {
	return wearable.ProviderFitbit
}

type fitbitActivityResponse struct {
	Summary struct {
		Steps               int `json:"steps"`
		CaloriesOut         int `json:"caloriesOut"`
		FairlyActiveMinutes int `json:"fairlyActiveMinutes"`
		VeryActiveMinutes   int `json:"veryActiveMinutes"`
		Distances           []struct {
			Activity string  `json:"activity"`
			Distance float64 `json:"distance"`
		} `json:"distances"`
	} `json:"summary"`
}

type fitbitHeartResponse struct {
	ActivitiesHeart []struct {
		Value struct {
			RestingHeartRate int `json:"restingHeartRate"`
			HeartRateZones   []struct {
				Name    string `json:"name"`
				Min     int    `json:"min"`
				Max     int    `json:"max"`
				Minutes int    `json:"minutes"`
			} `json:"heartRateZones"`
		} `json:"value"`
	} `json:"activities-heart"`
}

type fitbitSleepResponse struct {
	Sleep []struct {
		IsMainSleep bool `json:"isMainSleep"`
		Efficiency  int  `json:"efficiency"`
	} `json:"sleep"`
	Summary struct {
		TotalMinutesAsleep int `json:"totalMinutesAsleep"`
		Stages             struct {
			Deep  int `json:"deep"`
			Light int `json:"light"`
			Rem   int `json:"rem"`
			Wake  int `json:"wake"`
		} `json:"stages"`
	} `json:"summary"`
}

type fitbitHRVResponse struct {
	HRV []struct {
		Value struct {
			DailyRmssd float64 `json:"dailyRmssd"`
		} `json:"value"`
	} `json:"hrv"`
}

type fitbitBreathingResponse struct {
	BR []struct {
		Value struct {
			BreathingRate float64 `json:"breathingRate"`
		} `json:"value"`
	} `json:"br"`
}

type fitbitSpO2Response struct {
	Value struct {
		Avg float64 `json:"avg"`
	} `json:"value"`
}

type fitbitCardioScoreResponse struct {
	CardioScore []struct {
		Value struct {
			VO2Max string `json:"vo2Max"`
		} `json:"value"`
	} `json:"cardioScore"`
}

func (a *fitbitAdapter) FetchDailyMetrics(ctx context.Context, accessToken string, date time.Time) (*wearable.DailyMetrics, error) {
	day := biztime.FormatDate(date)
	metrics := &wearable.DailyMetrics{Date: biztime.DayOf(date)}

	var failedMu sync.Mutex
	failed := 0

	categories := []struct {
		name  string
		fetch func(ctx context.Context) error
	}{
		{"activity", func(ctx context.Context) error { return a.fetchActivity(ctx, accessToken, day, metrics) }},
		{"heart", func(ctx context.Context) error { return a.fetchHeart(ctx, accessToken, day, metrics) }},
		{"sleep", func(ctx context.Context) error { return a.fetchSleep(ctx, accessToken, day, metrics) }},
		{"hrv", func(ctx context.Context) error { return a.fetchHRV(ctx, accessToken, day, metrics) }},
		{"breathing", func(ctx context.Context) error { return a.fetchBreathing(ctx, accessToken, day, metrics) }},
		{"spo2", func(ctx context.Context) error { return a.fetchSpO2(ctx, accessToken, day, metrics) }},
		{"cardio_fitness", func(ctx context.Context) error { return a.fetchCardioFitness(ctx, accessToken, day, metrics) }},
	}
	metrics.CategoriesRequested = len(categories)

	// Each category goroutine writes to distinct metric fields, so no lock
	// is needed around the metrics struct itself.
	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		g.Go(func() error {
			err := cat.fetch(gctx)
			if err == nil {
				return nil
			}
			fatal, countAsFailure := classifyCategoryErr(wearable.ProviderFitbit, err)
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

func (a *fitbitAdapter) fetchActivity(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitActivityResponse
	url := fmt.Sprintf("%s/1/user/-/activities/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}

	steps := resp.Summary.Steps
	calories := resp.Summary.CaloriesOut
	active := resp.Summary.FairlyActiveMinutes + resp.Summary.VeryActiveMinutes
	m.Steps = &steps
	m.Calories = &calories
	m.ActiveMinutes = &active

	for _, d := range resp.Summary.Distances {
		if d.Activity == "total" {
			meters := d.Distance * 1000
			m.DistanceMeters = &meters
			break
		}
	}
	return nil
}

func (a *fitbitAdapter) fetchHeart(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitHeartResponse
	url := fmt.Sprintf("%s/1/user/-/activities/heart/date/%s/1d.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if len(resp.ActivitiesHeart) == 0 {
		return nil
	}

	value := resp.ActivitiesHeart[0].Value
	if value.RestingHeartRate > 0 {
		rhr := value.RestingHeartRate
		m.RestingHeartRate = &rhr
	}

	azm := 0
	zones := make([]wearable.HeartRateZone, 0, len(value.HeartRateZones))
	for _, z := range value.HeartRateZones {
		zones = append(zones, wearable.HeartRateZone{
			Name: z.Name, Min: z.Min, Max: z.Max, Minutes: z.Minutes,
		})
		// Active-zone minutes: moderate zones count single, vigorous double.
		switch z.Name {
		case "Fat Burn":
			azm += z.Minutes
		case "Cardio", "Peak":
			azm += 2 * z.Minutes
		}
	}
	m.HeartRateZones = zones
	m.ActiveZoneMinutes = &azm
	return nil
}

func (a *fitbitAdapter) fetchSleep(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitSleepResponse
	url := fmt.Sprintf("%s/1.2/user/-/sleep/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if len(resp.Sleep) == 0 {
		return nil
	}

	efficiency := 0
	for _, s := range resp.Sleep {
		if s.IsMainSleep {
			efficiency = s.Efficiency
			break
		}
	}

	m.Sleep = &wearable.SleepSummary{
		TotalMinutes: resp.Summary.TotalMinutesAsleep,
		Efficiency:   efficiency,
		DeepMinutes:  resp.Summary.Stages.Deep,
		LightMinutes: resp.Summary.Stages.Light,
		REMMinutes:   resp.Summary.Stages.Rem,
		AwakeMinutes: resp.Summary.Stages.Wake,
	}
	return nil
}

func (a *fitbitAdapter) fetchHRV(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitHRVResponse
	url := fmt.Sprintf("%s/1/user/-/hrv/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if len(resp.HRV) == 0 {
		return nil
	}
	hrv := resp.HRV[0].Value.DailyRmssd
	m.HRV = &hrv
	return nil
}

func (a *fitbitAdapter) fetchBreathing(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitBreathingResponse
	url := fmt.Sprintf("%s/1/user/-/br/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if len(resp.BR) == 0 {
		return nil
	}
	rate := resp.BR[0].Value.BreathingRate
	m.BreathingRate = &rate
	return nil
}

func (a *fitbitAdapter) fetchSpO2(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitSpO2Response
	url := fmt.Sprintf("%s/1/user/-/spo2/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if resp.Value.Avg == 0 {
		return nil
	}
	avg := resp.Value.Avg
	m.SpO2 = &avg
	return nil
}

func (a *fitbitAdapter) fetchCardioFitness(ctx context.Context, token, day string, m *wearable.DailyMetrics) error {
	var resp fitbitCardioScoreResponse
	url := fmt.Sprintf("%s/1/user/-/cardioscore/date/%s.json", a.cfg.APIBase, day)
	if err := a.http.GetJSON(ctx, url, token, &resp); err != nil {
		return err
	}
	if len(resp.CardioScore) == 0 {
		return nil
	}
	// VO2Max arrives as a "36-40" style range; score on its lower bound.
	vo2, err := parseVO2Max(resp.CardioScore[0].Value.VO2Max)
	if err != nil {
		return nil
	}
	m.CardioFitness = &vo2
	return nil
}

func parseVO2Max(s string) (float64, error) {
	low := strings.SplitN(strings.TrimSpace(s), "-", 2)[0]
	return strconv.ParseFloat(strings.TrimSpace(low), 64)
}
