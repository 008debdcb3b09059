// Package syncer drives the fetch-transform-store pipeline across all
// known locations and accumulates per-location outcomes for one run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoweather/tracker/internal/weather"
)

// Failure stages recorded in a run result.
const (
	StageFetch        = "fetch"
	StageSink         = "sink"
	StageNotAttempted = "not-attempted"
)

// LocationFailure records why one location did not produce a stored
// observation in this run.
type LocationFailure struct {
	LocationKey string `json:"locationKey"`
	Stage       string `json:"stage"`
	Reason      string `json:"reason"`
}

// SyncRunResult summarizes one run. It is ephemeral: reported to the
// caller and logged, never persisted.
type SyncRunResult struct {
	RunID       string            `json:"runId"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
	Attempted   int               `json:"attempted"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Failures    []LocationFailure `json:"failures,omitempty"`
}

// OrchestratorError means the run could not start at all because the
// location set could not be enumerated. Individual location failures
// never produce this; they are recorded in the result instead.
type OrchestratorError struct {
	Cause error
}

func (e *OrchestratorError) Error() string {
	return fmt.Sprintf("cannot enumerate locations: %v", e.Cause)
}

func (e *OrchestratorError) Unwrap() error { return e.Cause }

// Config bounds a run.
type Config struct {
	// Workers is the fixed worker-pool size. Values <= 0 mean 1.
	Workers int

	// BatchLimit caps how many locations one run processes, to respect
	// external rate limits. 0 means no cap.
	BatchLimit int
}

// Orchestrator owns one run at a time over the configured stores and
// provider.
type Orchestrator struct {
	locations weather.LocationStore
	provider  weather.Provider
	sink      weather.ObservationStore
	clock     func() time.Time
	cfg       Config
	logger    zerolog.Logger
}

// New creates an Orchestrator. clock may be nil, in which case UTC wall
// time is used; tests inject their own.
func New(locations weather.LocationStore, provider weather.Provider, sink weather.ObservationStore,
	cfg Config, logger zerolog.Logger, clock func() time.Time) *Orchestrator {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		locations: locations,
		provider:  provider,
		sink:      sink,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one sync run: enumerate locations, cap the batch, then
// fan fetch→transform→store out over the worker pool. Per-location
// failures are recorded and never abort the run; the run itself only
// fails when the location store cannot be read.
//
// On cancellation or deadline, no new locations are dequeued (within
// one select tick) and undequeued ones are reported as not-attempted;
// in-flight attempts run to completion on a detached context, bounded
// by the provider's own HTTP timeout.
func (o *Orchestrator) Run(ctx context.Context) (SyncRunResult, error) {
	result := SyncRunResult{
		RunID:     uuid.NewString(),
		StartedAt: o.clock(),
	}

	locs, err := o.locations.List(ctx)
	if err != nil {
		return result, &OrchestratorError{Cause: err}
	}

	if o.cfg.BatchLimit > 0 && len(locs) > o.cfg.BatchLimit {
		o.logger.Info().
			Int("known", len(locs)).
			Int("limit", o.cfg.BatchLimit).
			Msg("capping sync batch")
		locs = locs[:o.cfg.BatchLimit]
	}
	result.Attempted = len(locs)

	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan weather.Location)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range jobs {
				err := o.processOne(context.WithoutCancel(ctx), loc)

				// One atomic counter update per completed location.
				mu.Lock()
				if err != nil {
					result.Failed++
					result.Failures = append(result.Failures, failureFor(loc.Key(), err))
				} else {
					result.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	var notAttempted []weather.Location
feed:
	for i, loc := range locs {
		if ctx.Err() != nil {
			notAttempted = locs[i:]
			break feed
		}
		select {
		case jobs <- loc:
		case <-ctx.Done():
			notAttempted = locs[i:]
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, loc := range notAttempted {
		result.Failed++
		result.Failures = append(result.Failures, LocationFailure{
			LocationKey: loc.Key(),
			Stage:       StageNotAttempted,
			Reason:      "run deadline reached before location was dequeued",
		})
	}

	result.CompletedAt = o.clock()

	o.logger.Info().
		Str("runId", result.RunID).
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("sync run completed")

	return result, nil
}

// processOne runs the pipeline for a single location. The fetch
// timestamp is read fresh per location so observations within a run are
// non-decreasing per key.
func (o *Orchestrator) processOne(ctx context.Context, loc weather.Location) error {
	payload, err := o.provider.Fetch(ctx, loc)
	if err != nil {
		return err
	}

	obs := weather.Transform(payload, loc.Key(), o.clock())

	if err := o.sink.Append(ctx, obs); err != nil {
		return &weather.SinkError{LocationKey: loc.Key(), Cause: err}
	}
	return nil
}

func failureFor(key string, err error) LocationFailure {
	stage := StageFetch
	var sinkErr *weather.SinkError
	if errors.As(err, &sinkErr) {
		stage = StageSink
	}
	return LocationFailure{
		LocationKey: key,
		Stage:       stage,
		Reason:      err.Error(),
	}
}
