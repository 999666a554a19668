package acceptance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TransientError reports an acceptance that failed after the status guard but
// was rolled back; the quote is sent again and the customer may retry.
type TransientError struct {
	QuoteID uuid.UUID
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("acceptance of quote %s rolled back: %v", e.QuoteID, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalInconsistencyError reports an acceptance whose rollback also failed.
// The quote may be left accepted without an order and needs an operator.
type FatalInconsistencyError struct {
	TenantID        uuid.UUID
	QuoteID         uuid.UUID
	Cause           error
	CompensationErr error
}

func (e *FatalInconsistencyError) Error() string {
	return fmt.Sprintf("quote %s left inconsistent: %v (compensation: %v)", e.QuoteID, e.Cause, e.CompensationErr)
}

func (e *FatalInconsistencyError) Unwrap() error {
	return e.Cause
}

var (
	errNotReverted = errors.New("quote was not accepted without an order")
	errNotLinked   = errors.New("quote could not be linked to the order")
)
