package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shopstream.app/sync/common/id"
	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

// ErrRunInProgress is returned when a run is requested for an entity type
// that already has one in flight in this process.
var ErrRunInProgress = errors.New("sync run already in progress")

// State is the orchestrator's position in one run.
type State string

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateTransforming State = "transforming"
	StateDispatching  State = "dispatching"
	StateReconciling  State = "reconciling"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Runner drives one end-to-end sync run for one entity type.
type Runner interface {
	EntityType() model.EntityType
	Run(ctx context.Context) (model.SyncRun, error)
}

// Transformer converts one source row into an outbound event, failing with
// *ValidationError on malformed rows.
type Transformer[T any] func(row T) (segment.Event, error)

type OrchestratorConfig struct {
	ChunkSize int32
}

// Orchestrator runs Extract -> Transform -> Dispatch -> Reconcile chunk by
// chunk until the backlog is drained. Row-level errors (validation, delivery)
// never abort a run; store errors do, leaving already reconciled batches
// intact for the next scheduled run.
type Orchestrator[T any] struct {
	entityType model.EntityType
	source     Source[T]
	rowID      func(T) string
	transform  Transformer[T]
	dispatcher *Dispatcher
	failures   *Recorder
	chunkSize  int32

	mu    sync.Mutex // single-flight per entity type within this process
	state State
}

func NewOrchestrator[T any](
	entityType model.EntityType,
	source Source[T],
	rowID func(T) string,
	transform Transformer[T],
	dispatcher *Dispatcher,
	failures *Recorder,
	cfg OrchestratorConfig,
) *Orchestrator[T] {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	return &Orchestrator[T]{
		entityType: entityType,
		source:     source,
		rowID:      rowID,
		transform:  transform,
		dispatcher: dispatcher,
		failures:   failures,
		chunkSize:  cfg.ChunkSize,
		state:      StateIdle,
	}
}

func (o *Orchestrator[T]) EntityType() model.EntityType {
	return o.entityType
}

// Run executes one sync run. Returns the run result together with the error
// that aborted it, if any; counts reflect work reconciled before the abort.
func (o *Orchestrator[T]) Run(ctx context.Context) (model.SyncRun, error) {
	if !o.mu.TryLock() {
		return model.SyncRun{}, ErrRunInProgress
	}
	defer o.mu.Unlock()

	run := model.SyncRun{
		ID:         id.New(),
		EntityType: o.entityType,
		StartedAt:  time.Now().UTC(),
	}

	sc := logger.StartSpan(ctx, "sync.run."+string(o.entityType))
	defer sc.End()
	ctx = sc.Context()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:      logger.Ptr(run.ID),
		EntityType: logger.Ptr(string(o.entityType)),
		Component:  "sync.engine.orchestrator",
	})

	slog.InfoContext(ctx, "sync run starting", "chunk_size", o.chunkSize)

	cursor := ""
	for chunk := 0; ; chunk++ {
		chunkCtx := logger.WithLogFields(ctx, logger.LogFields{Chunk: logger.Ptr(chunk)})

		o.setState(chunkCtx, StateExtracting)
		rows, err := o.source.NextChunk(chunkCtx, cursor, o.chunkSize)
		if err != nil {
			o.setState(chunkCtx, StateFailed)
			run.FinishedAt = time.Now().UTC()
			storeErr := &StoreError{Op: "reading chunk", Err: err}
			sc.RecordError(storeErr)
			return run, storeErr
		}
		if len(rows) == 0 {
			break
		}

		run.Attempted += len(rows)
		cursor = o.rowID(rows[len(rows)-1])

		o.setState(chunkCtx, StateTransforming)
		events, entityIDs := o.transformChunk(chunkCtx, rows, &run)

		o.setState(chunkCtx, StateDispatching)
		err = o.dispatcher.Dispatch(chunkCtx, events, func(batchCtx context.Context, outcomes []Outcome) error {
			o.setState(batchCtx, StateReconciling)
			return o.reconcile(batchCtx, outcomes, entityIDs, &run)
		})
		if err != nil {
			o.setState(chunkCtx, StateFailed)
			run.FinishedAt = time.Now().UTC()
			sc.RecordError(err)
			return run, err
		}

		// A short chunk means the unsynced backlog beyond the cursor is
		// exhausted.
		if int32(len(rows)) < o.chunkSize {
			break
		}
	}

	o.setState(ctx, StateDone)
	run.FinishedAt = time.Now().UTC()

	slog.InfoContext(ctx, "sync run complete",
		"attempted", run.Attempted,
		"delivered", run.Delivered,
		"failed", run.Failed,
		"invalid", run.Invalid)

	return run, nil
}

// transformChunk converts rows to events, routing validation failures to the
// failure ledger without a network attempt. Returns the valid events plus a
// delivery-key to entity-ID mapping for reconciliation.
func (o *Orchestrator[T]) transformChunk(ctx context.Context, rows []T, run *model.SyncRun) ([]segment.Event, map[string]string) {
	events := make([]segment.Event, 0, len(rows))
	entityIDs := make(map[string]string, len(rows))

	for _, row := range rows {
		ev, err := o.transform(row)
		if err != nil {
			entityID := o.rowID(row)
			slog.WarnContext(ctx, "skipping invalid row", "entity_id", entityID, "error", err)
			o.failures.Record(ctx, o.entityType, entityID, o.eventTypeName(), err, model.ErrorCategoryValidation, nil, 0)
			run.Invalid++
			continue
		}
		events = append(events, ev)
		entityIDs[ev.MessageID] = o.rowID(row)
	}

	return events, entityIDs
}

// reconcile applies one batch's outcomes: delivered rows get their synced
// flag set, failed ones become failure records. A flag-update failure aborts
// the run so no outcome is double-counted on the retriggered run.
func (o *Orchestrator[T]) reconcile(ctx context.Context, outcomes []Outcome, entityIDs map[string]string, run *model.SyncRun) error {
	delivered := make([]string, 0, len(outcomes))

	for _, outcome := range outcomes {
		entityID, ok := entityIDs[outcome.Event.MessageID]
		if !ok {
			// Cannot happen unless the dispatcher fabricates events.
			return fmt.Errorf("outcome for unknown delivery key %s", outcome.Event.MessageID)
		}

		if outcome.Delivered {
			delivered = append(delivered, entityID)
			continue
		}

		o.failures.Record(ctx, o.entityType, entityID, string(outcome.Event.Type),
			outcome.Err, outcome.Category, outcome.Event.Snapshot(), outcome.Attempts-1)
		run.Failed++
	}

	if len(delivered) > 0 {
		if err := o.source.MarkSynced(ctx, delivered); err != nil {
			return &StoreError{Op: "marking rows synced", Err: err}
		}
		run.Delivered += len(delivered)
		slog.InfoContext(ctx, "batch reconciled", "delivered", len(delivered), "failed", len(outcomes)-len(delivered))
	}

	return nil
}

// eventTypeName is the event type recorded for rows that fail before an
// event exists.
func (o *Orchestrator[T]) eventTypeName() string {
	if o.entityType == model.EntityTypeCustomer {
		return string(segment.EventTypeIdentify)
	}
	return string(segment.EventTypeTrack)
}

func (o *Orchestrator[T]) setState(ctx context.Context, s State) {
	o.state = s
	slog.DebugContext(ctx, "state transition", "state", s)
}
