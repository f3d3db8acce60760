package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Business-rule failures. Each maps to a distinct condition the API layer
// reports; none of them is ever collapsed into a generic error.
var (
	ErrDuplicatePeriod  = errors.New("an active record already exists for this student, fee and period")
	ErrScopeMismatch    = errors.New("fee structure does not apply to the student's class")
	ErrInvalidAmount    = errors.New("payment amount must be greater than zero")
	ErrAlreadyCancelled = errors.New("record is already cancelled")
	ErrRecordPaid       = errors.New("record is fully paid")
	ErrHasPayments      = errors.New("record with recorded payments cannot be deleted")
)

// ExceedsDueError rejects a payment larger than the outstanding balance. It
// carries the actual due amount so the caller can act on it.
type ExceedsDueError struct {
	Due decimal.Decimal
}

func (e *ExceedsDueError) Error() string {
	return fmt.Sprintf("payment exceeds due amount of %s", e.Due.StringFixed(2))
}

// InvariantError marks an internal inconsistency trapped before a write,
// such as a negative due amount. It must never surface to the caller with
// detail; the API layer reports it as an internal error.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "ledger invariant violation: " + e.Detail
}
