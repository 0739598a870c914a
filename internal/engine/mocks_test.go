package engine

import (
	"context"

	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

type mockSender struct {
	sendFn  func(ctx context.Context, events []segment.Event) error
	batches [][]segment.Event
}

func (m *mockSender) SendBatch(ctx context.Context, events []segment.Event) error {
	m.batches = append(m.batches, events)
	if m.sendFn != nil {
		return m.sendFn(ctx, events)
	}
	return nil
}

type mockCustomerSource struct {
	nextFn    func(ctx context.Context, afterID string, limit int32) ([]model.Customer, error)
	markFn    func(ctx context.Context, ids []string) error
	cursors   []string
	markCalls [][]string
}

func (m *mockCustomerSource) NextChunk(ctx context.Context, afterID string, limit int32) ([]model.Customer, error) {
	m.cursors = append(m.cursors, afterID)
	if m.nextFn != nil {
		return m.nextFn(ctx, afterID, limit)
	}
	return nil, nil
}

func (m *mockCustomerSource) MarkSynced(ctx context.Context, ids []string) error {
	m.markCalls = append(m.markCalls, ids)
	if m.markFn != nil {
		return m.markFn(ctx, ids)
	}
	return nil
}

type mockFailureStore struct {
	createFn func(ctx context.Context, record *model.FailureRecord) error
	records  []*model.FailureRecord
}

func (m *mockFailureStore) Create(ctx context.Context, record *model.FailureRecord) error {
	m.records = append(m.records, record)
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return nil
}

// unsyncedCustomers builds a keyed backlog for source mocks: sids "001",
// "002", ... so cursor order matches numeric order.
func unsyncedCustomers(n int) []model.Customer {
	customers := make([]model.Customer, n)
	for i := range customers {
		customers[i] = model.Customer{
			SID:   sid(i + 1),
			Email: "buyer@example.com",
		}
	}
	return customers
}

func sid(i int) string {
	return string([]byte{'0' + byte(i/100%10), '0' + byte(i/10%10), '0' + byte(i%10)})
}

// chunkAfter mimics keyset pagination over rows sorted by SID.
func chunkAfter(rows []model.Customer, afterID string, limit int32) []model.Customer {
	var out []model.Customer
	for _, row := range rows {
		if row.SID > afterID {
			out = append(out, row)
		}
		if int32(len(out)) == limit {
			break
		}
	}
	return out
}
