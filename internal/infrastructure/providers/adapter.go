package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	apperrors "github.com/vitalink-io/vitalink/internal/shared/errors"
)

// Adapter maps one platform's raw API into the normalized daily metrics
// shape. Implementations fetch their categories in parallel and degrade a
// failed category to a nil field instead of aborting the whole day; only an
// authentication failure aborts the fetch.
type Adapter interface {
	Provider() wearable.Provider
	FetchDailyMetrics(ctx context.Context, accessToken string, date time.Time) (*wearable.DailyMetrics, error)
}

// NewAdapter returns the adapter for a provider. Platforms without a data
// implementation get a stub that reports not-implemented instead of
// fabricating data.
func NewAdapter(cfg *Config, client *RetryingClient) Adapter {
	switch cfg.Provider {
	case wearable.ProviderFitbit:
		return newFitbitAdapter(cfg, client)
	case wearable.ProviderPolar:
		return newPolarAdapter(cfg, client)
	default:
		return &notImplementedAdapter{provider: cfg.Provider}
	}
}

type notImplementedAdapter struct {
	provider wearable.Provider
}

func (a *notImplementedAdapter) Provider() wearable.Provider {
	return a.provider
}

func (a *notImplementedAdapter) FetchDailyMetrics(ctx context.Context, accessToken string, date time.Time) (*wearable.DailyMetrics, error) {
	return nil, apperrors.NewProviderNotImplementedError(a.provider.String())
}

// classifyCategoryErr decides what a single category failure means:
// a 401 invalidates the whole fetch, a 404 just means no data for that day,
// anything else is a degradable category failure.
func classifyCategoryErr(provider wearable.Provider, err error) (fatal error, countAsFailure bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return apperrors.NewReconnectRequiredError(provider.String()), false
		case http.StatusNotFound:
			return nil, false
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}
	return nil, true
}
