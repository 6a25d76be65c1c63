// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"veilink/internal/shared/logger"
)

// Job is one periodic unit of work driven by the manager.
type Job interface {
	Execute(ctx context.Context) error
}

// Manager owns the single gocron scheduler instance for the worker.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.Mutex
}

// NewManager creates a new scheduler manager.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: scheduler, logger: log}, nil
}

// Register adds name to run every interval. Runs start immediately and
// never overlap themselves; an invocation still running when the next
// tick arrives reschedules it.
func (m *Manager) Register(name string, interval time.Duration, job Job) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			start := time.Now()
			if err := job.Execute(ctx); err != nil {
				m.logger.Errorw("scheduled job failed",
					"job", name,
					"error", err,
					"duration", time.Since(start),
				)
				return
			}
			m.logger.Debugw("scheduled job completed", "job", name, "duration", time.Since(start))
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered scheduled job", "job", name, "interval", interval.String())
	return nil
}

// Start launches the scheduler; idempotent.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}
