package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopstream.app/sync/internal/model"
)

// FailureStore persists and queries the failure ledger. Append-mostly:
// records are immutable except the resolved flag, which only operator
// actions flip.
type FailureStore interface {
	Create(ctx context.Context, record *model.FailureRecord) error
	ListUnresolved(ctx context.Context, limit int32) ([]model.FailureRecord, error)
	Summary(ctx context.Context) (model.FailureSummary, error)
	Resolve(ctx context.Context, id int64) error

	// DeleteExpired removes records older than the cutoff, regardless of
	// resolution state. Retention runs out-of-band of sync runs.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type failureStore struct {
	pool *pgxpool.Pool
}

func newFailureStore(pool *pgxpool.Pool) FailureStore {
	return &failureStore{pool: pool}
}

func (s *failureStore) Create(ctx context.Context, record *model.FailureRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO retail.failed_events
			(id, entity_type, entity_id, event_type, error_message, error_category,
			 payload, created_at, retry_count, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)`,
		record.ID, record.EntityType, record.EntityID, record.EventType,
		record.ErrorMessage, record.ErrorCategory, record.Payload,
		record.CreatedAt, record.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("inserting failure record: %w", err)
	}
	return nil
}

func (s *failureStore) ListUnresolved(ctx context.Context, limit int32) ([]model.FailureRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, event_type, error_message, error_category,
		       payload, created_at, retry_count, resolved
		FROM retail.failed_events
		WHERE resolved = false
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved failures: %w", err)
	}
	defer rows.Close()

	var records []model.FailureRecord
	for rows.Next() {
		var r model.FailureRecord
		if err := rows.Scan(
			&r.ID, &r.EntityType, &r.EntityID, &r.EventType, &r.ErrorMessage,
			&r.ErrorCategory, &r.Payload, &r.CreatedAt, &r.RetryCount, &r.Resolved,
		); err != nil {
			return nil, fmt.Errorf("scanning failure record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading failure records: %w", err)
	}
	return records, nil
}

func (s *failureStore) Summary(ctx context.Context) (model.FailureSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_type, error_category, count(*)
		FROM retail.failed_events
		WHERE resolved = false
		GROUP BY entity_type, error_category
		ORDER BY count(*) DESC`)
	if err != nil {
		return model.FailureSummary{}, fmt.Errorf("querying failure summary: %w", err)
	}
	defer rows.Close()

	summary := model.FailureSummary{
		ByCategory: make(map[model.ErrorCategory]int64),
		ByEntity:   make(map[model.EntityType]int64),
	}
	for rows.Next() {
		var (
			entityType model.EntityType
			category   model.ErrorCategory
			count      int64
		)
		if err := rows.Scan(&entityType, &category, &count); err != nil {
			return model.FailureSummary{}, fmt.Errorf("scanning failure summary: %w", err)
		}
		summary.TotalUnresolved += count
		summary.ByCategory[category] += count
		summary.ByEntity[entityType] += count
	}
	if err := rows.Err(); err != nil {
		return model.FailureSummary{}, fmt.Errorf("reading failure summary: %w", err)
	}
	return summary, nil
}

func (s *failureStore) Resolve(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE retail.failed_events SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("resolving failure record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *failureStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM retail.failed_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired failure records: %w", err)
	}
	return tag.RowsAffected(), nil
}
