package service

import (
	"context"
	"time"

	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/store"
)

// FailureService exposes the failure ledger for operator triage.
type FailureService interface {
	ListUnresolved(ctx context.Context, limit int32) ([]model.FailureRecord, error)
	Summary(ctx context.Context) (model.FailureSummary, error)
	Resolve(ctx context.Context, id int64) error
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type failureService struct {
	failures store.FailureStore
}

func NewFailureService(failures store.FailureStore) FailureService {
	return &failureService{failures: failures}
}

func (s *failureService) ListUnresolved(ctx context.Context, limit int32) ([]model.FailureRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.failures.ListUnresolved(ctx, limit)
}

func (s *failureService) Summary(ctx context.Context) (model.FailureSummary, error) {
	return s.failures.Summary(ctx)
}

func (s *failureService) Resolve(ctx context.Context, id int64) error {
	return s.failures.Resolve(ctx, id)
}

func (s *failureService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.failures.DeleteExpired(ctx, time.Now().UTC().Add(-retention))
}
