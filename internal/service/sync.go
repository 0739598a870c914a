package service

import (
	"context"
	"errors"
	"fmt"

	"shopstream.app/sync/internal/engine"
	"shopstream.app/sync/internal/model"
)

var (
	// ErrRunInProgress is returned when a sync for the entity type is
	// already running, here or in another process.
	ErrRunInProgress = errors.New("sync run already in progress")

	ErrUnknownEntityType = errors.New("unknown entity type")
)

// RunLocker is the cross-process single-flight guard. Implemented by
// runlock.Locker; nil disables cross-process locking (syncctl one-shot runs
// against a dev database).
type RunLocker interface {
	Acquire(ctx context.Context, entityType model.EntityType) (bool, error)
	Release(ctx context.Context, entityType model.EntityType)
}

// SyncService is the trigger boundary: one call drives one complete sync run
// for one entity type and reports its counts.
type SyncService interface {
	RunSync(ctx context.Context, entityType model.EntityType) (model.SyncRun, error)

	// RunAll syncs every entity type in order (customers before orders, so
	// identities exist before order events reference them). Stops at the
	// first run-level failure and returns the runs completed so far.
	RunAll(ctx context.Context) ([]model.SyncRun, error)
}

type syncService struct {
	runners map[model.EntityType]engine.Runner
	locks   RunLocker
}

func NewSyncService(runners []engine.Runner, locks RunLocker) SyncService {
	byType := make(map[model.EntityType]engine.Runner, len(runners))
	for _, r := range runners {
		byType[r.EntityType()] = r
	}
	return &syncService{runners: byType, locks: locks}
}

func (s *syncService) RunSync(ctx context.Context, entityType model.EntityType) (model.SyncRun, error) {
	runner, ok := s.runners[entityType]
	if !ok {
		return model.SyncRun{}, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}

	if s.locks != nil {
		acquired, err := s.locks.Acquire(ctx, entityType)
		if err != nil {
			return model.SyncRun{}, err
		}
		if !acquired {
			return model.SyncRun{}, ErrRunInProgress
		}
		defer s.locks.Release(ctx, entityType)
	}

	run, err := runner.Run(ctx)
	if errors.Is(err, engine.ErrRunInProgress) {
		return model.SyncRun{}, ErrRunInProgress
	}
	return run, err
}

func (s *syncService) RunAll(ctx context.Context) ([]model.SyncRun, error) {
	runs := make([]model.SyncRun, 0, len(s.runners))
	for _, entityType := range model.EntityTypes() {
		run, err := s.RunSync(ctx, entityType)
		if err != nil {
			return runs, fmt.Errorf("syncing %ss: %w", entityType, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
