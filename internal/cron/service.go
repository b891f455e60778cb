package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the sweep service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.SweepMetrics
	Interval time.Duration

	// SweepTimeout bounds one sweep. It should not exceed the lease TTL.
	SweepTimeout time.Duration
}

// Service runs the quote maintenance sweep (expiry, outbox retention) on a
// fixed cadence, one worker at a time.
type Service struct {
	logg         *logger.Logger
	registry     *Registry
	lock         Lock
	metrics      *metrics.SweepMetrics
	interval     time.Duration
	sweepTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := params.SweepTimeout
	if timeout <= 0 {
		timeout = LeaseTTL(interval, 0)
	}
	return &Service{
		logg:         params.Logger,
		registry:     registry,
		lock:         params.Lock,
		metrics:      params.Metrics,
		interval:     interval,
		sweepTimeout: timeout,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "quote sweep loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "quote sweep finished with errors", err)
	}
}

// runCycle runs every job under the lease. A failing job does not stop the
// ones after it; their errors are combined.
func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncLeaseBusy()
		holder, herr := s.lock.Holder(ctx)
		if herr != nil {
			s.logg.Warn(ctx, "quote sweep lease busy; holder unknown")
			return nil
		}
		s.logg.Info(s.logg.WithField(ctx, "lease_holder", holder), "quote sweep lease held elsewhere; skipping")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release quote sweep lease", relErr)
		}
	}()

	sweepCtx, cancel := context.WithTimeout(ctx, s.sweepTimeout)
	defer cancel()

	jobs := s.registry.Jobs()
	sweepCtx = s.logg.WithFields(sweepCtx, map[string]any{
		"event": "quote.sweep",
		"jobs":  s.registry.Names(),
	})
	s.logg.Info(sweepCtx, "quote sweep starting")
	start := time.Now()
	var errs error
	for _, job := range jobs {
		if err := s.runJob(sweepCtx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	failed := len(multierr.Errors(errs))
	doneCtx := s.logg.WithFields(sweepCtx, map[string]any{
		"failed_jobs": failed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	s.logg.Info(doneCtx, "quote sweep complete")
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithField(ctx, "job", name)
	if err := ctx.Err(); err != nil {
		s.logg.Warn(jobCtx, "sweep deadline reached; job not started")
		s.metrics.ObserveJob(name, 0, err)
		return err
	}
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveJob(name, duration, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "sweep job failed", err)
		return err
	}
	s.logg.Info(jobCtx, "sweep job completed")
	return nil
}
