package promo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Creation failures.
var (
	ErrDuplicateCode   = errors.New("promo code already exists")
	ErrInvalidTarget   = errors.New("target products do not exist in the catalog")
	ErrInvalidDiscount = errors.New("percentage discount cannot exceed 100")
	ErrInvalidWindow   = errors.New("valid_until must be after valid_from")
)

// Validation failures. Each is a distinct reported condition.
var (
	ErrCodeNotFound      = errors.New("promo code not found")
	ErrInactive          = errors.New("promo code is not active")
	ErrNotYetValid       = errors.New("promo code is not yet valid")
	ErrExpired           = errors.New("promo code has expired")
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
	ErrNotApplicable     = errors.New("promo code does not apply to this product")
)

// BelowMinimumOrderError rejects an order smaller than the code's minimum.
// It carries the minimum so the caller can report it.
type BelowMinimumOrderError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumOrderError) Error() string {
	return fmt.Sprintf("order amount is below the minimum of %s", e.Minimum.StringFixed(2))
}
