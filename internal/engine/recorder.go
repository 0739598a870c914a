package engine

import (
	"context"
	"log/slog"
	"time"

	"shopstream.app/sync/common/id"
	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/internal/model"
)

const (
	maxErrorMessageLen = 1000
	maxPayloadLen      = 10000
)

// FailureStore persists failure records. Implemented by the store layer.
type FailureStore interface {
	Create(ctx context.Context, record *model.FailureRecord) error
}

// Recorder appends failure records for triage. A failure to persist the
// record itself is logged and swallowed: recording failures must never halt
// a sync run.
type Recorder struct {
	store FailureStore
}

func NewRecorder(store FailureStore) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Record(ctx context.Context, entityType model.EntityType, entityID, eventType string, deliveryErr error, category model.ErrorCategory, payload []byte, retryCount int) {
	record := &model.FailureRecord{
		ID:            id.New(),
		EntityType:    entityType,
		EntityID:      entityID,
		EventType:     eventType,
		ErrorMessage:  logger.Truncate(deliveryErr.Error(), maxErrorMessageLen),
		ErrorCategory: category,
		Payload:       logger.Truncate(string(payload), maxPayloadLen),
		CreatedAt:     time.Now().UTC(),
		RetryCount:    int32(retryCount),
	}

	if err := r.store.Create(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to record failure",
			"error", err,
			"entity_id", entityID,
			"category", category)
	}
}
