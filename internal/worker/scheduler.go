package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/internal/service"
)

type SchedulerConfig struct {
	// Interval between sync cycles.
	Interval time.Duration
	// Retention is how long resolved and stale failure records are kept.
	Retention time.Duration
	// PurgeEvery is how often expired failure records are purged.
	PurgeEvery time.Duration
}

// Scheduler drives recurring sync cycles: every Interval it runs a full sync
// of all entity types, and once per PurgeEvery it trims the failure ledger.
type Scheduler struct {
	sync     service.SyncService
	failures service.FailureService
	cfg      SchedulerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewScheduler(sync service.SyncService, failures service.FailureService, cfg SchedulerConfig) *Scheduler {
	if cfg.PurgeEvery <= 0 {
		cfg.PurgeEvery = 24 * time.Hour
	}
	return &Scheduler{
		sync:      sync,
		failures:  failures,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the scheduler loop. Blocks until Stop() is called or the context
// is cancelled. The first sync cycle runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "sync.worker.scheduler",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	purgeTicker := time.NewTicker(s.cfg.PurgeEvery)
	defer purgeTicker.Stop()

	slog.InfoContext(ctx, "scheduler started",
		"interval", s.cfg.Interval,
		"retention", s.cfg.Retention,
		"purge_every", s.cfg.PurgeEvery)

	if err := s.cycleSafe(ctx); err != nil {
		slog.ErrorContext(ctx, "sync cycle error", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "scheduler stopping")
			return
		case <-ticker.C:
			if err := s.cycleSafe(ctx); err != nil {
				slog.ErrorContext(ctx, "sync cycle error", "error", err)
			}
		case <-purgeTicker.C:
			if err := s.purgeOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "purge cycle error", "error", err)
			}
		}
	}
}

// Stop signals the scheduler to stop gracefully.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Scheduler) cycleSafe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in sync cycle", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.cycleOnce(ctx)
}

// cycleOnce performs one full sync cycle across all entity types.
func (s *Scheduler) cycleOnce(ctx context.Context) error {
	started := time.Now()
	runs, err := s.sync.RunAll(ctx)

	attempted, delivered, failed, invalid := 0, 0, 0, 0
	for _, run := range runs {
		attempted += run.Attempted
		delivered += run.Delivered
		failed += run.Failed
		invalid += run.Invalid
	}
	slog.InfoContext(ctx, "sync cycle finished",
		"runs", len(runs),
		"attempted", attempted,
		"delivered", delivered,
		"failed", failed,
		"invalid", invalid,
		"duration", time.Since(started))

	if err != nil {
		// Another process holding the run lock is normal operation, not a
		// cycle failure worth an error log.
		if errors.Is(err, service.ErrRunInProgress) {
			slog.InfoContext(ctx, "sync cycle skipped, run already in progress")
			return nil
		}
		return err
	}

	if failed > 0 || invalid > 0 {
		summary, serr := s.failures.Summary(ctx)
		if serr != nil {
			slog.WarnContext(ctx, "failed to summarize failures", "error", serr)
			return nil
		}
		slog.WarnContext(ctx, "unresolved failures after sync cycle",
			"total_unresolved", summary.TotalUnresolved)
	}
	return nil
}

func (s *Scheduler) purgeOnce(ctx context.Context) error {
	purged, err := s.failures.PurgeExpired(ctx, s.cfg.Retention)
	if err != nil {
		return fmt.Errorf("purge expired failures: %w", err)
	}
	if purged > 0 {
		slog.InfoContext(ctx, "purged expired failure records", "count", purged)
	}
	return nil
}
