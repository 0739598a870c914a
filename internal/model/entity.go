package model

// EntityType identifies which source table a record came from.
type EntityType string

const (
	EntityTypeCustomer EntityType = "customer"
	EntityTypeOrder    EntityType = "order"
)

// EntityTypes lists all syncable entity types in scheduling order: customers
// sync before orders so identity resolution happens before order events land.
func EntityTypes() []EntityType {
	return []EntityType{EntityTypeCustomer, EntityTypeOrder}
}

func (t EntityType) Valid() bool {
	return t == EntityTypeCustomer || t == EntityTypeOrder
}

// ErrorCategory classifies why a delivery failed.
type ErrorCategory string

const (
	// ErrorCategoryValidation marks a malformed or incomplete source row.
	// Never retried: the data shape will not fix itself.
	ErrorCategoryValidation ErrorCategory = "validation"

	// ErrorCategoryTransient marks network/5xx failures. Retried with
	// backoff, recorded only after retries are exhausted.
	ErrorCategoryTransient ErrorCategory = "transient"

	// ErrorCategoryPermanent marks 4xx/auth failures. Never retried,
	// recorded immediately.
	ErrorCategoryPermanent ErrorCategory = "permanent"
)
