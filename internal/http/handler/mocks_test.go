package handler_test

import (
	"context"
	"time"

	"shopstream.app/sync/internal/model"
)

type mockSyncService struct {
	runSyncFn func(ctx context.Context, entityType model.EntityType) (model.SyncRun, error)
	runAllFn  func(ctx context.Context) ([]model.SyncRun, error)
}

func (m *mockSyncService) RunSync(ctx context.Context, entityType model.EntityType) (model.SyncRun, error) {
	if m.runSyncFn != nil {
		return m.runSyncFn(ctx, entityType)
	}
	return model.SyncRun{}, nil
}

func (m *mockSyncService) RunAll(ctx context.Context) ([]model.SyncRun, error) {
	if m.runAllFn != nil {
		return m.runAllFn(ctx)
	}
	return nil, nil
}

type mockFailureService struct {
	listFn    func(ctx context.Context, limit int32) ([]model.FailureRecord, error)
	summaryFn func(ctx context.Context) (model.FailureSummary, error)
	resolveFn func(ctx context.Context, id int64) error
	purgeFn   func(ctx context.Context, retention time.Duration) (int64, error)
}

func (m *mockFailureService) ListUnresolved(ctx context.Context, limit int32) ([]model.FailureRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockFailureService) Summary(ctx context.Context) (model.FailureSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx)
	}
	return model.FailureSummary{}, nil
}

func (m *mockFailureService) Resolve(ctx context.Context, id int64) error {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id)
	}
	return nil
}

func (m *mockFailureService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	if m.purgeFn != nil {
		return m.purgeFn(ctx, retention)
	}
	return 0, nil
}
