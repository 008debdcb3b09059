// Package scheduler runs periodic sync runs against the orchestrator.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/geoweather/tracker/internal/syncer"
)

// Scheduler triggers an orchestrator run on a fixed interval. Each run
// gets its own deadline so a slow provider cannot bleed into the next
// tick.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	orchestrator *syncer.Orchestrator
	interval     time.Duration
	runTimeout   time.Duration
	logger       zerolog.Logger
}

// New creates a new Scheduler.
func New(orchestrator *syncer.Orchestrator, interval, runTimeout time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		orchestrator: orchestrator,
		interval:     interval,
		runTimeout:   runTimeout,
		logger:       logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		result, err := s.orchestrator.Run(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("scheduled sync run failed")
			return
		}
		s.logger.Info().
			Str("runId", result.RunID).
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Msg("scheduled sync run finished")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
