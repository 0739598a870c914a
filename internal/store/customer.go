package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopstream.app/sync/internal/model"
)

// CustomerStore provides chunked reads of unsynced customers, sync-flag
// updates, and bulk loading.
type CustomerStore interface {
	// NextChunk returns up to limit unsynced customers with SID > afterID,
	// ascending by SID. Read-only; no cursor is held between calls.
	NextChunk(ctx context.Context, afterID string, limit int32) ([]model.Customer, error)

	// MarkSynced sets the synced flag for the given SIDs.
	MarkSynced(ctx context.Context, sids []string) error

	// BulkInsert loads customers via COPY, for the CSV loader.
	BulkInsert(ctx context.Context, customers []model.Customer) (int64, error)
}

type customerStore struct {
	pool *pgxpool.Pool
}

func newCustomerStore(pool *pgxpool.Pool) CustomerStore {
	return &customerStore{pool: pool}
}

const customerChunkQuery = `
SELECT sid, cust_id, last_name, first_name, email,
       marketing_flag, lty_opt_in, lty_balance,
       total_transactions, sale_item_count, return_item_count,
       ytd_sale, created_datetime, synced
FROM retail.customers
WHERE synced = false AND sid > $1
ORDER BY sid
LIMIT $2`

func (s *customerStore) NextChunk(ctx context.Context, afterID string, limit int32) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, customerChunkQuery, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unsynced customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(
			&c.SID, &c.CustID, &c.LastName, &c.FirstName, &c.Email,
			&c.MarketingFlag, &c.LoyaltyOptIn, &c.LoyaltyBalance,
			&c.TotalTransactions, &c.SaleItemCount, &c.ReturnItemCount,
			&c.YTDSale, &c.CreatedAt, &c.Synced,
		); err != nil {
			return nil, fmt.Errorf("scanning customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading customer rows: %w", err)
	}
	return customers, nil
}

func (s *customerStore) MarkSynced(ctx context.Context, sids []string) error {
	if len(sids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE retail.customers SET synced = true WHERE sid = ANY($1)`, sids)
	if err != nil {
		return fmt.Errorf("marking customers synced: %w", err)
	}
	return nil
}

func (s *customerStore) BulkInsert(ctx context.Context, customers []model.Customer) (int64, error) {
	columns := []string{
		"sid", "cust_id", "last_name", "first_name", "email",
		"marketing_flag", "lty_opt_in", "lty_balance",
		"total_transactions", "sale_item_count", "return_item_count",
		"ytd_sale", "created_datetime",
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"retail", "customers"},
		columns,
		pgx.CopyFromSlice(len(customers), func(i int) ([]any, error) {
			c := customers[i]
			return []any{
				c.SID, c.CustID, c.LastName, c.FirstName, c.Email,
				c.MarketingFlag, c.LoyaltyOptIn, c.LoyaltyBalance,
				c.TotalTransactions, c.SaleItemCount, c.ReturnItemCount,
				c.YTDSale, c.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk inserting customers: %w", err)
	}
	return n, nil
}
