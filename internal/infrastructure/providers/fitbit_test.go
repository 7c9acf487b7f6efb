package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	apperrors "github.com/vitalink-io/vitalink/internal/shared/errors"
)

func fitbitTestServer(t *testing.T, overrides map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	responses := map[string]string{
		"/activities/date/": `{"summary":{"steps":8200,"caloriesOut":2400,
			"fairlyActiveMinutes":25,"veryActiveMinutes":20,
			"distances":[{"activity":"total","distance":6.4}]}}`,
		"/activities/heart/": `{"activities-heart":[{"value":{"restingHeartRate":52,
			"heartRateZones":[
				{"name":"Fat Burn","min":98,"max":137,"minutes":40},
				{"name":"Cardio","min":137,"max":167,"minutes":10},
				{"name":"Peak","min":167,"max":220,"minutes":5}]}}]}`,
		"/sleep/date/": `{"sleep":[{"isMainSleep":true,"efficiency":92}],
			"summary":{"totalMinutesAsleep":430,
			"stages":{"deep":80,"light":240,"rem":90,"wake":20}}}`,
		"/hrv/date/":         `{"hrv":[{"value":{"dailyRmssd":62.5}}]}`,
		"/br/date/":          `{"br":[{"value":{"breathingRate":15.2}}]}`,
		"/spo2/date/":        `{"value":{"avg":96.8}}`,
		"/cardioscore/date/": `{"cardioScore":[{"value":{"vo2Max":"42-46"}}]}`,
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for fragment, handler := range overrides {
			if strings.Contains(r.URL.Path, fragment) {
				handler(w, r)
				return
			}
		}
		for fragment, body := range responses {
			if strings.Contains(r.URL.Path, fragment) {
				w.Write([]byte(body)) //nolint:errcheck
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func newFitbitTestAdapter(apiBase string) *fitbitAdapter {
	cfg := &Config{Provider: wearable.ProviderFitbit, APIBase: apiBase}
	return newFitbitAdapter(cfg, newTestClient())
}

func TestFitbitAdapter_FullDay(t *testing.T) {
	srv := fitbitTestServer(t, nil)
	defer srv.Close()

	adapter := newFitbitTestAdapter(srv.URL)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m, err := adapter.FetchDailyMetrics(context.Background(), "token", date)
	require.NoError(t, err)

	require.NotNil(t, m.Steps)
	assert.Equal(t, 8200, *m.Steps)
	require.NotNil(t, m.Calories)
	assert.Equal(t, 2400, *m.Calories)
	require.NotNil(t, m.ActiveMinutes)
	assert.Equal(t, 45, *m.ActiveMinutes)
	require.NotNil(t, m.DistanceMeters)
	assert.InDelta(t, 6400.0, *m.DistanceMeters, 0.01)

	require.NotNil(t, m.RestingHeartRate)
	assert.Equal(t, 52, *m.RestingHeartRate)
	assert.Len(t, m.HeartRateZones, 3)
	require.NotNil(t, m.ActiveZoneMinutes)
	assert.Equal(t, 40+2*10+2*5, *m.ActiveZoneMinutes)

	require.NotNil(t, m.Sleep)
	assert.Equal(t, 430, m.Sleep.TotalMinutes)
	assert.Equal(t, 92, m.Sleep.Efficiency)
	assert.Equal(t, 80, m.Sleep.DeepMinutes)

	require.NotNil(t, m.HRV)
	assert.InDelta(t, 62.5, *m.HRV, 0.001)
	require.NotNil(t, m.BreathingRate)
	assert.InDelta(t, 15.2, *m.BreathingRate, 0.001)
	require.NotNil(t, m.SpO2)
	assert.InDelta(t, 96.8, *m.SpO2, 0.001)
	require.NotNil(t, m.CardioFitness)
	assert.InDelta(t, 42.0, *m.CardioFitness, 0.001)

	assert.Equal(t, 7, m.CategoriesRequested)
	assert.Equal(t, 0, m.CategoriesFailed)
	assert.Equal(t, wearable.SyncStatusSuccess, m.Status())
}

func TestFitbitAdapter_CategoryFailureDegradesToPartial(t *testing.T) {
	srv := fitbitTestServer(t, map[string]http.HandlerFunc{
		"/hrv/date/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"/br/date/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})
	defer srv.Close()

	adapter := newFitbitTestAdapter(srv.URL)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m, err := adapter.FetchDailyMetrics(context.Background(), "token", date)
	require.NoError(t, err)

	assert.Nil(t, m.HRV)
	assert.Nil(t, m.BreathingRate)
	assert.NotNil(t, m.Steps, "other categories still fetched")
	assert.Equal(t, 2, m.CategoriesFailed)
	assert.Equal(t, wearable.SyncStatusPartial, m.Status())
}

func TestFitbitAdapter_MissingDataIsNotAFailure(t *testing.T) {
	srv := fitbitTestServer(t, map[string]http.HandlerFunc{
		"/hrv/date/": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"hrv":[]}`)) //nolint:errcheck
		},
	})
	defer srv.Close()

	adapter := newFitbitTestAdapter(srv.URL)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m, err := adapter.FetchDailyMetrics(context.Background(), "token", date)
	require.NoError(t, err)

	assert.Nil(t, m.HRV)
	assert.Equal(t, 0, m.CategoriesFailed)
	assert.Equal(t, wearable.SyncStatusSuccess, m.Status())
}

func TestFitbitAdapter_UnauthorizedAbortsWholeFetch(t *testing.T) {
	srv := fitbitTestServer(t, map[string]http.HandlerFunc{
		"/activities/date/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})
	defer srv.Close()

	adapter := newFitbitTestAdapter(srv.URL)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := adapter.FetchDailyMetrics(context.Background(), "token", date)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeReconnectRequired))
}

func TestNotImplementedAdapter(t *testing.T) {
	adapter := NewAdapter(&Config{Provider: wearable.ProviderGarmin}, newTestClient())

	_, err := adapter.FetchDailyMetrics(context.Background(), "token", time.Now())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProviderNotImplemented))
}

func TestParseVO2Max(t *testing.T) {
	v, err := parseVO2Max("42-46")
	require.NoError(t, err)
	assert.InDelta(t, 42.0, v, 0.001)

	v, err = parseVO2Max("38.5")
	require.NoError(t, err)
	assert.InDelta(t, 38.5, v, 0.001)

	_, err = parseVO2Max("")
	assert.Error(t, err)
}
