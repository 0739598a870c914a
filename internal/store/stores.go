package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Stores aggregates all store implementations.
type Stores struct {
	customers CustomerStore
	orders    OrderStore
	failures  FailureStore
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		customers: newCustomerStore(pool),
		orders:    newOrderStore(pool),
		failures:  newFailureStore(pool),
	}
}

func (s *Stores) Customers() CustomerStore {
	return s.customers
}

func (s *Stores) Orders() OrderStore {
	return s.orders
}

func (s *Stores) Failures() FailureStore {
	return s.failures
}
