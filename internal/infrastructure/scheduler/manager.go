// Package scheduler runs the background sync jobs using gocron v2.
package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// SchedulerManager owns the single gocron scheduler instance.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance. Jobs run on
// UTC, matching the day bucketing of wearable records.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown failed", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}
