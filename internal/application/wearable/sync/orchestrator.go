// Package sync orchestrates a provider sync run: quota check, token
// freshness, per-day fetching, scoring and persistence.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/providers"
	"github.com/vitalink-io/vitalink/internal/infrastructure/ratelimit"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// fetchConcurrency bounds how many days are fetched from a provider at once.
const fetchConcurrency = 3

// ConfigSource resolves a provider to its deployed configuration.
type ConfigSource interface {
	Get(provider wearable.Provider) (*providers.Config, error)
}

// TokenManager keeps a connection's access token usable.
type TokenManager interface {
	EnsureFresh(ctx context.Context, conn *wearable.Connection) error
}

// ConnectionCache is the read-through cache in front of the connection
// repository.
type ConnectionCache interface {
	Get(ctx context.Context, userID uint, provider wearable.Provider) *wearable.Connection
	Set(ctx context.Context, conn *wearable.Connection)
}

// AdapterFactory builds the data adapter for a configured provider.
type AdapterFactory func(cfg *providers.Config) providers.Adapter

// Result summarizes one sync run.
type Result struct {
	Provider   wearable.Provider
	SyncID     string
	SyncedAt   time.Time
	DaysSynced int
	DaysFailed int
	Records    []*wearable.Record
}

// Orchestrator drives a sync run through its phases in order: the quota is
// charged before any provider call, the token is refreshed before any fetch,
// and nothing is persisted when the run is cancelled.
type Orchestrator struct {
	registry    ConfigSource
	limiter     ratelimit.RateLimiter
	tokens      TokenManager
	adapters    AdapterFactory
	connections wearable.ConnectionRepository
	connCache   ConnectionCache
	records     wearable.RecordRepository
	logger      logger.Interface
}

func NewOrchestrator(
	registry ConfigSource,
	limiter ratelimit.RateLimiter,
	tokens TokenManager,
	adapters AdapterFactory,
	connections wearable.ConnectionRepository,
	connCache ConnectionCache,
	records wearable.RecordRepository,
	log logger.Interface,
) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		limiter:     limiter,
		tokens:      tokens,
		adapters:    adapters,
		connections: connections,
		connCache:   connCache,
		records:     records,
		logger:      log.Named("sync"),
	}
}

// Run syncs the most recent days for one (user, provider) pair. A days value
// of zero or less falls back to the provider's configured window.
func (o *Orchestrator) Run(ctx context.Context, userID uint, provider wearable.Provider, days int) (*Result, error) {
	cfg, err := o.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	conn, err := o.loadConnection(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	syncID := uuid.New().String()
	log := o.logger.With("sync_id", syncID, "provider", provider.String(), "user_id", userID)

	allowed, err := o.limiter.Allow(ctx,
		fmt.Sprintf("sync:%d:%s", userID, provider),
		cfg.Quota.Requests, cfg.Quota.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		log.Warnw("sync denied by rate limit")
		return nil, errors.NewRateLimitedError(provider.String())
	}

	if err := o.tokens.EnsureFresh(ctx, conn); err != nil {
		log.Warnw("token not usable", "error", err)
		return nil, err
	}

	if days <= 0 {
		days = cfg.SyncDays
	}
	dates := biztime.RecentDays(days)
	log.Infow("sync started", "days", days)

	metricsByDay, err := o.fetchDays(ctx, cfg, conn, dates)
	if err != nil {
		return nil, err
	}

	// Cancellation before persistence drops the whole run; a partially
	// persisted window would be indistinguishable from a short one.
	if ctx.Err() != nil {
		return nil, errors.NewSyncCancelledError(provider.String())
	}

	now := biztime.NowUTC()
	result := &Result{Provider: provider, SyncID: syncID, SyncedAt: now}

	for i, date := range dates {
		var record *wearable.Record
		if m := metricsByDay[i]; m != nil {
			record = wearable.NewRecord(userID, provider, *m, now)
		} else {
			record = wearable.NewFailedRecord(userID, provider, date, now)
		}
		if err := o.records.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist record for %s: %w", biztime.FormatDate(date), err)
		}
		result.Records = append(result.Records, record)
		if record.Status == wearable.SyncStatusFailed {
			result.DaysFailed++
		} else {
			result.DaysSynced++
		}
	}

	if result.DaysSynced == 0 {
		log.Errorw("every day in the window failed", "days", days)
		return nil, errors.NewProviderUnavailableError(provider.String(), "no data could be fetched")
	}

	conn.MarkSynced(now)
	if err := o.connections.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to record sync time: %w", err)
	}
	o.connCache.Set(ctx, conn)

	log.Infow("sync finished",
		"days_synced", result.DaysSynced,
		"days_failed", result.DaysFailed,
	)
	return result, nil
}

// loadConnection reads through the cache to the repository.
func (o *Orchestrator) loadConnection(ctx context.Context, userID uint, provider wearable.Provider) (*wearable.Connection, error) {
	if conn := o.connCache.Get(ctx, userID, provider); conn != nil {
		return conn, nil
	}
	conn, err := o.connections.GetByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return nil, errors.NewNotConnectedError(provider.String())
	}
	o.connCache.Set(ctx, conn)
	return conn, nil
}

// fetchDays fetches each date's metrics in parallel. A day whose fetch fails
// is reported as a nil entry; an authentication failure or cancellation
// aborts the whole fetch.
func (o *Orchestrator) fetchDays(ctx context.Context, cfg *providers.Config, conn *wearable.Connection, dates []time.Time) ([]*wearable.DailyMetrics, error) {
	adapter := o.adapters(cfg)

	metricsByDay := make([]*wearable.DailyMetrics, len(dates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			m, err := adapter.FetchDailyMetrics(gctx, conn.AccessToken, date)
			if err != nil {
				if errors.IsType(err, errors.ErrorTypeReconnectRequired) ||
					errors.IsType(err, errors.ErrorTypeProviderNotImplemented) {
					return err
				}
				if gctx.Err() != nil {
					return errors.NewSyncCancelledError(conn.Provider.String())
				}
				o.logger.Warnw("day fetch failed",
					"provider", conn.Provider.String(),
					"date", biztime.FormatDate(date),
					"error", err,
				)
				return nil
			}
			mu.Lock()
			metricsByDay[i] = m
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metricsByDay, nil
}
