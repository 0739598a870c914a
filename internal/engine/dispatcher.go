package engine

import (
	"context"
	"log/slog"
	"time"

	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

// Sender transmits one batch of events and blocks until the ingestion API
// acknowledges it. Implemented by *segment.Client.
type Sender interface {
	SendBatch(ctx context.Context, events []segment.Event) error
}

// Outcome is the final delivery result for one event.
type Outcome struct {
	Event     segment.Event
	Delivered bool
	// Category and Err are set when Delivered is false.
	Category model.ErrorCategory
	Err      error
	// Attempts counts transmissions made for the event's batch.
	Attempts int
}

type DispatcherConfig struct {
	BatchSize    int
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Dispatcher accumulates events into fixed-size batches, sends each batch
// synchronously with retry and backoff, and reports per-event outcomes
// batch-by-batch. An outcome is never reported as delivered before the
// sender has acknowledged the batch.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig

	// sleep is replaceable in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		sleep:  sleepContext,
	}
}

// Dispatch sends events in batches. After each batch's outcomes are final it
// invokes reconcile before the next batch is transmitted, so flag updates and
// failure records land batch-by-batch: a crash mid-run leaves every already
// reconciled batch durable. A reconcile error aborts dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, events []segment.Event, reconcile func(ctx context.Context, outcomes []Outcome) error) error {
	for start := 0; start < len(events); start += d.cfg.BatchSize {
		end := min(start+d.cfg.BatchSize, len(events))
		batch := events[start:end]

		batchCtx := logger.WithLogFields(ctx, logger.LogFields{
			Batch:     logger.Ptr(start / d.cfg.BatchSize),
			Component: "sync.engine.dispatcher",
		})

		outcomes := d.sendBatch(batchCtx, batch)
		if err := reconcile(batchCtx, outcomes); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) sendBatch(ctx context.Context, batch []segment.Event) []Outcome {
	delay := d.cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= d.cfg.MaxRetries+1; attempt++ {
		err := d.sender.SendBatch(ctx, batch)
		if err == nil {
			return deliveredOutcomes(batch, attempt)
		}
		lastErr = err

		if Classify(err) == model.ErrorCategoryPermanent {
			slog.ErrorContext(ctx, "permanent delivery error, not retrying",
				"error", err,
				"events", len(batch))
			return failedOutcomes(batch, model.ErrorCategoryPermanent, err, attempt)
		}

		if attempt <= d.cfg.MaxRetries {
			slog.WarnContext(ctx, "transient delivery error, backing off",
				"error", err,
				"attempt", attempt,
				"max_attempts", d.cfg.MaxRetries+1,
				"delay", delay)
			if sleepErr := d.sleep(ctx, delay); sleepErr != nil {
				// Aborted mid-backoff: the batch was never acknowledged.
				return failedOutcomes(batch, model.ErrorCategoryTransient, lastErr, attempt)
			}
			delay = min(delay*2, d.cfg.MaxDelay)
		}
	}

	slog.ErrorContext(ctx, "retries exhausted",
		"error", lastErr,
		"attempts", d.cfg.MaxRetries+1,
		"events", len(batch))
	return failedOutcomes(batch, model.ErrorCategoryTransient, lastErr, d.cfg.MaxRetries+1)
}

func deliveredOutcomes(batch []segment.Event, attempts int) []Outcome {
	outcomes := make([]Outcome, len(batch))
	for i, ev := range batch {
		outcomes[i] = Outcome{Event: ev, Delivered: true, Attempts: attempts}
	}
	return outcomes
}

func failedOutcomes(batch []segment.Event, category model.ErrorCategory, err error, attempts int) []Outcome {
	outcomes := make([]Outcome, len(batch))
	for i, ev := range batch {
		outcomes[i] = Outcome{Event: ev, Category: category, Err: err, Attempts: attempts}
	}
	return outcomes
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
