package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
)

// RunFunc is one scheduled pipeline pass.
type RunFunc func(ctx context.Context) error

// Scheduler triggers periodic pipeline runs on a cron schedule. Overlapping
// runs are skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	config  *common.SchedulerConfig
	run     RunFunc
	logger  arbor.ILogger
	running sync.Mutex
}

// New creates a scheduler for the given run function.
func New(config *common.SchedulerConfig, run RunFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		config: config,
		run:    run,
		logger: logger,
	}
}

// Start registers the schedule and begins triggering runs.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, s.trigger)
	if err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Scheduler started")
	return nil
}

func (s *Scheduler) trigger() {
	if !s.running.TryLock() {
		s.logger.Warn().Msg("Previous pipeline run still in progress, skipping scheduled run")
		return
	}
	defer s.running.Unlock()

	s.logger.Info().Msg("Starting scheduled pipeline run")
	if err := s.run(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled pipeline run failed")
	}
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running.Lock()
	s.running.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
}
