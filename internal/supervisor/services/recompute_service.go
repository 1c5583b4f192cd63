// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/metrics"
	"github.com/tomtom215/reco/internal/recommend"
)

// Recomputer runs one full batch recompute.
type Recomputer interface {
	RecomputeAll(ctx context.Context, opts recommend.RecomputeOptions) (*recommend.RecomputeResult, error)
}

// Run states reported by RecomputeService.Status.
const (
	RunStateIdle      = "idle"
	RunStateRunning   = "running"
	RunStateSucceeded = "succeeded"
	RunStateFailed    = "failed"
	RunStateRejected  = "rejected"
)

// Run triggers.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// RecomputeServiceConfig holds configuration for the recompute service.
type RecomputeServiceConfig struct {
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@daily" or "@every 6h".
	Schedule string

	// RunOnStartup runs a recompute as soon as the service starts.
	RunOnStartup bool

	// Timeout bounds a single run.
	Timeout time.Duration

	// BreakerFailures consecutive failed runs open the circuit; further
	// runs are rejected until BreakerCooldown has passed.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	Options recommend.RecomputeOptions
}

// RunStatus describes the last run of the service.
type RunStatus struct {
	State      string                     `json:"state"`
	Trigger    string                     `json:"trigger,omitempty"`
	RunID      string                     `json:"run_id,omitempty"`
	StartedAt  time.Time                  `json:"started_at,omitempty"`
	FinishedAt time.Time                  `json:"finished_at,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Result     *recommend.RecomputeResult `json:"result,omitempty"`
	NextRun    time.Time                  `json:"next_run,omitempty"`
	Breaker    string                     `json:"breaker"`
}

// RecomputeService runs the batch recompute on a schedule under suture
// supervision.
type RecomputeService struct {
	recomputer Recomputer
	config     RecomputeServiceConfig
	schedule   cron.Schedule
	breaker    *gobreaker.CircuitBreaker[*recommend.RecomputeResult]
	logger     zerolog.Logger
	name       string
	now        func() time.Time

	// trigger holds at most one pending manual run.
	trigger chan struct{}

	mu     sync.RWMutex
	status RunStatus
}

// NewRecomputeService validates the schedule and builds the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecomputeService(r Recomputer, cfg RecomputeServiceConfig, logger zerolog.Logger) (*RecomputeService, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid recompute schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 15 * time.Minute
	}

	s := &RecomputeService{
		recomputer: r,
		config:     cfg,
		schedule:   schedule,
		logger:     logger.With().Str("service", "recompute").Logger(),
		name:       "recompute-service",
		now:        time.Now,
		trigger:    make(chan struct{}, 1),
		status:     RunStatus{State: RunStateIdle},
	}
	s.breaker = s.newBreaker()
	s.status.Breaker = s.breaker.State().String()
	return s, nil
}

const breakerName = "recompute"

func (s *RecomputeService) newBreaker() *gobreaker.CircuitBreaker[*recommend.RecomputeResult] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[*recommend.RecomputeResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     s.config.BreakerCooldown,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.config.BreakerFailures
		},

		// A run refused because another is in progress, or cut short by
		// shutdown, says nothing about the health of the batch.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, recommend.ErrRecomputeInProgress) ||
				errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("recompute circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
		},
	})
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Serve implements suture.Service.
func (s *RecomputeService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("timeout", s.config.Timeout).
		Msg("recompute service starting")

	if s.config.RunOnStartup {
		s.run(ctx, TriggerStartup)
	}

	for {
		next := s.schedule.Next(s.now())
		s.setNextRun(next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("recompute service shutting down")
			return ctx.Err()

		case <-timer.C:
			s.run(ctx, TriggerSchedule)

		case <-s.trigger:
			timer.Stop()
			s.run(ctx, TriggerManual)
		}
	}
}

// Trigger requests a run as soon as the service is idle. It never blocks;
// it returns false when a manual run is already pending.
func (s *RecomputeService) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the last run.
func (s *RecomputeService) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Breaker = s.breaker.State().String()
	return st
}

func (s *RecomputeService) setNextRun(t time.Time) {
	s.mu.Lock()
	s.status.NextRun = t
	s.mu.Unlock()
}

// run performs one recompute through the circuit breaker. Failures are
// recorded in the status and logged; they never stop the service.
func (s *RecomputeService) run(ctx context.Context, trigger string) {
	runID := logging.GenerateRunID()
	runCtx, cancel := context.WithTimeout(logging.ContextWithRunID(ctx, runID), s.config.Timeout)
	defer cancel()

	log := s.logger.With().Str("run_id", runID).Str("trigger", trigger).Logger()
	start := s.now()

	s.mu.Lock()
	next := s.status.NextRun
	s.status = RunStatus{
		State:     RunStateRunning,
		Trigger:   trigger,
		RunID:     runID,
		StartedAt: start,
		NextRun:   next,
	}
	s.mu.Unlock()

	log.Info().Msg("scheduled recompute starting")
	res, err := s.breaker.Execute(func() (*recommend.RecomputeResult, error) {
		return s.recomputer.RecomputeAll(runCtx, s.config.Options)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.FinishedAt = s.now()

	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		s.status.State = RunStateRejected
		s.status.Error = err.Error()
		metrics.RecordRecompute(metrics.StatusRejected, 0, 0, 0)
		log.Warn().Err(err).Msg("recompute rejected by circuit breaker")

	case err != nil:
		s.status.State = RunStateFailed
		s.status.Error = err.Error()
		log.Error().Err(err).Msg("scheduled recompute failed")

	default:
		s.status.State = RunStateSucceeded
		s.status.Result = res
		log.Info().
			Int("users", res.Users).
			Int("rows", res.Rows).
			Dur("duration", res.Duration).
			Msg("scheduled recompute complete")
	}
}

// String returns the service name for logging.
func (s *RecomputeService) String() string {
	return s.name
}
