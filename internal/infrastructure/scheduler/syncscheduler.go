package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	appsync "github.com/vitalink-io/vitalink/internal/application/wearable/sync"
	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	sharedConfig "github.com/vitalink-io/vitalink/internal/shared/config"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
)

// ConnectionLister enumerates the connections to sync.
type ConnectionLister interface {
	ListAll(ctx context.Context) ([]*wearable.Connection, error)
}

// SyncRunner executes one sync run.
type SyncRunner interface {
	Run(ctx context.Context, userID uint, provider wearable.Provider, days int) (*appsync.Result, error)
}

// RegisterSyncJob registers the periodic background sync over every stored
// connection.
func (m *SchedulerManager) RegisterSyncJob(
	cfg *sharedConfig.SchedulerConfig,
	connections ConnectionLister,
	runner SyncRunner,
) error {
	if !cfg.Enabled {
		m.logger.Infow("background sync disabled by config")
		return nil
	}

	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	opts := []gocron.JobOption{
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("wearables", "sync"),
		gocron.WithName("wearable-sync"),
	}
	if cfg.RunOnStartup {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			m.syncAllConnections(cfg, connections, runner)
		}),
		opts...,
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered wearable sync job", "interval", interval)
	return nil
}

// syncAllConnections fans the run out over every connection with bounded
// concurrency. One user's failure never stops the sweep.
func (m *SchedulerManager) syncAllConnections(
	cfg *sharedConfig.SchedulerConfig,
	connections ConnectionLister,
	runner SyncRunner,
) {
	start := time.Now()

	ctx := context.Background()
	conns, err := connections.ListAll(ctx)
	if err != nil {
		m.logger.Errorw("failed to list connections for background sync", "error", err)
		return
	}
	if len(conns) == 0 {
		m.logger.Debugw("no connections to sync")
		return
	}

	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	perUserTimeout := time.Duration(cfg.TimeoutPerUserMS) * time.Millisecond
	if perUserTimeout <= 0 {
		perUserTimeout = 2 * time.Minute
	}

	var synced, failed int
	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	results := make(chan bool, len(conns))
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(ctx, perUserTimeout)
			defer cancel()

			_, err := runner.Run(runCtx, conn.UserID, conn.Provider, 0)
			if err != nil {
				// Quota denials and stale tokens are expected here; they
				// resolve themselves or need the user, not an alert.
				if errors.IsType(err, errors.ErrorTypeRateLimited) ||
					errors.IsType(err, errors.ErrorTypeReconnectRequired) {
					m.logger.Debugw("background sync skipped",
						"user_id", conn.UserID,
						"provider", conn.Provider.String(),
						"reason", err)
				} else {
					m.logger.Warnw("background sync failed",
						"user_id", conn.UserID,
						"provider", conn.Provider.String(),
						"error", err)
				}
				results <- false
				return nil
			}
			results <- true
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for ok := range results {
		if ok {
			synced++
		} else {
			failed++
		}
	}

	m.logger.Infow("background sync sweep finished",
		"connections", len(conns),
		"synced", synced,
		"failed", failed,
		"duration", time.Since(start),
	)
}
