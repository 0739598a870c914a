package engine

import (
	"errors"
	"fmt"

	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

// ValidationError marks a source row whose shape is wrong: a missing
// identifier, an unresolvable customer reference, an unparseable amount.
// Validation failures are routed straight to the failure ledger without a
// network attempt, since they cannot succeed on retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError marks a source-store failure (extraction or flag update). It is
// fatal to the current run: previously reconciled batches stay intact and the
// next scheduled run picks up where this one stopped.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Classify maps a delivery error to its failure category. Client errors
// (4xx) are permanent: the payload or credentials are wrong and a retry
// cannot help. Everything else — 5xx, timeouts, connection resets — is
// transient and eligible for backoff.
func Classify(err error) model.ErrorCategory {
	if IsValidation(err) {
		return model.ErrorCategoryValidation
	}
	var apiErr *segment.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return model.ErrorCategoryPermanent
		}
		return model.ErrorCategoryTransient
	}
	return model.ErrorCategoryTransient
}
