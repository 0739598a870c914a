package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopstream.app/sync/internal/model"
)

// OrderStore provides chunked reads of unsynced orders (joined with their
// line items), sync-flag updates, and bulk loading.
type OrderStore interface {
	NextChunk(ctx context.Context, afterID string, limit int32) ([]model.Order, error)
	MarkSynced(ctx context.Context, sids []string) error
	BulkInsert(ctx context.Context, orders []model.Order) (int64, error)
	BulkInsertItems(ctx context.Context, items []model.OrderItem) (int64, error)
}

type orderStore struct {
	pool *pgxpool.Pool
}

func newOrderStore(pool *pgxpool.Pool) OrderStore {
	return &orderStore{pool: pool}
}

const orderChunkQuery = `
SELECT sid, doc_no, bt_cuid, bt_email, st_cuid, st_email,
       sale_total_amt, sale_subtotal, sale_total_tax_amt,
       total_discount_amt, shipping_amt, sold_qty, return_qty,
       currency_name, tender_name, store_code, sbs_no, ship_method,
       has_sale, has_return, post_date, created_datetime, synced
FROM retail.documents
WHERE synced = false AND sid > $1
ORDER BY sid
LIMIT $2`

const orderItemsQuery = `
SELECT sid, doc_sid, item_pos, alu, description1, dcs_code, vend_code,
       qty, price, orig_price, disc_amt, item_size, attribute, invn_sbs_item_sid
FROM retail.document_items
WHERE doc_sid = ANY($1)
ORDER BY doc_sid, item_pos`

// NextChunk reads one chunk of unsynced orders and attaches each order's line
// items with a single ANY() query, so a chunk costs two round trips
// regardless of order count.
func (s *orderStore) NextChunk(ctx context.Context, afterID string, limit int32) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, orderChunkQuery, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unsynced orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.SID, &o.DocNo, &o.BillToCUID, &o.BillToEmail, &o.ShipToCUID, &o.ShipToEmail,
			&o.SaleTotalAmt, &o.SaleSubtotal, &o.SaleTotalTaxAmt,
			&o.TotalDiscountAmt, &o.ShippingAmt, &o.SoldQty, &o.ReturnQty,
			&o.CurrencyName, &o.TenderName, &o.StoreCode, &o.SubsidiaryNo, &o.ShipMethod,
			&o.HasSale, &o.HasReturn, &o.PostDate, &o.CreatedAt, &o.Synced,
		); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading order rows: %w", err)
	}

	if len(orders) == 0 {
		return nil, nil
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *orderStore) attachItems(ctx context.Context, orders []model.Order) error {
	sids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		sids[i] = o.SID
		index[o.SID] = i
	}

	rows, err := s.pool.Query(ctx, orderItemsQuery, sids)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(
			&item.SID, &item.DocSID, &item.ItemPos, &item.ALU, &item.Description,
			&item.DCSCode, &item.VendorCode, &item.Qty, &item.Price, &item.OrigPrice,
			&item.DiscountAmt, &item.ItemSize, &item.Attribute, &item.InvnItemSID,
		); err != nil {
			return fmt.Errorf("scanning order item row: %w", err)
		}
		if i, ok := index[item.DocSID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading order item rows: %w", err)
	}
	return nil
}

func (s *orderStore) MarkSynced(ctx context.Context, sids []string) error {
	if len(sids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE retail.documents SET synced = true WHERE sid = ANY($1)`, sids)
	if err != nil {
		return fmt.Errorf("marking orders synced: %w", err)
	}
	return nil
}

func (s *orderStore) BulkInsert(ctx context.Context, orders []model.Order) (int64, error) {
	columns := []string{
		"sid", "doc_no", "bt_cuid", "bt_email", "st_cuid", "st_email",
		"sale_total_amt", "sale_subtotal", "sale_total_tax_amt",
		"total_discount_amt", "shipping_amt", "sold_qty", "return_qty",
		"currency_name", "tender_name", "store_code", "sbs_no", "ship_method",
		"has_sale", "has_return", "post_date", "created_datetime",
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"retail", "documents"},
		columns,
		pgx.CopyFromSlice(len(orders), func(i int) ([]any, error) {
			o := orders[i]
			return []any{
				o.SID, o.DocNo, o.BillToCUID, o.BillToEmail, o.ShipToCUID, o.ShipToEmail,
				o.SaleTotalAmt, o.SaleSubtotal, o.SaleTotalTaxAmt,
				o.TotalDiscountAmt, o.ShippingAmt, o.SoldQty, o.ReturnQty,
				o.CurrencyName, o.TenderName, o.StoreCode, o.SubsidiaryNo, o.ShipMethod,
				o.HasSale, o.HasReturn, o.PostDate, o.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk inserting orders: %w", err)
	}
	return n, nil
}

func (s *orderStore) BulkInsertItems(ctx context.Context, items []model.OrderItem) (int64, error) {
	columns := []string{
		"sid", "doc_sid", "item_pos", "alu", "description1", "dcs_code", "vend_code",
		"qty", "price", "orig_price", "disc_amt", "item_size", "attribute", "invn_sbs_item_sid",
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"retail", "document_items"},
		columns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			item := items[i]
			return []any{
				item.SID, item.DocSID, item.ItemPos, item.ALU, item.Description,
				item.DCSCode, item.VendorCode, item.Qty, item.Price, item.OrigPrice,
				item.DiscountAmt, item.ItemSize, item.Attribute, item.InvnItemSID,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk inserting order items: %w", err)
	}
	return n, nil
}
