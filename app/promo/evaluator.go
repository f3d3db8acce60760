package promo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// Store defines persistence for promo codes. IncrementUsage must be an
// atomic increment-and-check against the usage limit, not a read-then-write:
// two concurrent redemptions of the last use share the same lost-update
// hazard as ledger balances.
type Store interface {
	CreateCode(code *models.PromoCode) error
	GetCodeByID(schoolID, id string) (*models.PromoCode, error)
	GetCodeByCode(schoolID, normalized string) (*models.PromoCode, error)
	ListCodes(schoolID string) ([]*models.PromoCode, error)
	UpdateCode(code *models.PromoCode) error
	DeleteCode(schoolID, id string) error
	IncrementUsage(schoolID, normalized string) error
}

// Catalog resolves the products a code can target.
type Catalog interface {
	GetProduct(schoolID, id string) (*models.FeeStructure, error)
}

// Result is a successful validation: the resolved code plus the discount it
// yields against the checked amount.
type Result struct {
	Code           *models.PromoCode `json:"code"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	FinalPrice     decimal.Decimal   `json:"final_price"`
}

// Evaluator validates promo codes and computes discounts. Validation is
// pure; Redeem is the only mutating operation.
type Evaluator struct {
	store   Store
	catalog Catalog
	now     func() time.Time
}

// NewEvaluator creates an Evaluator over the given store and catalog.
func NewEvaluator(store Store, catalog Catalog) *Evaluator {
	return &Evaluator{store: store, catalog: catalog, now: time.Now}
}

// SetClock overrides the evaluator's time source. Used by tests.
func (ev *Evaluator) SetClock(now func() time.Time) {
	ev.now = now
}

// Create validates and stores a new promo code. The code is normalized to
// uppercase/trimmed and must be unique within the school.
func (ev *Evaluator) Create(scope string, code *models.PromoCode) (*models.PromoCode, error) {
	code.Code = models.NormalizeCode(code.Code)
	code.SchoolID = scope

	if code.DiscountType == models.DiscountPercentage && code.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidDiscount
	}
	if !code.ValidUntil.After(code.ValidFrom) {
		return nil, ErrInvalidWindow
	}
	if code.TargetType == models.TargetSpecific {
		for _, productID := range code.TargetProducts {
			if _, err := ev.catalog.GetProduct(scope, productID); err != nil {
				return nil, ErrInvalidTarget
			}
		}
	}

	if existing, err := ev.store.GetCodeByCode(scope, code.Code); err == nil && existing != nil {
		return nil, ErrDuplicateCode
	}

	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	code.UsedCount = 0
	now := ev.now()
	code.CreatedAt = now
	code.UpdatedAt = now

	if err := ev.store.CreateCode(code); err != nil {
		return nil, err
	}
	return code, nil
}

// Get returns a code by ID.
func (ev *Evaluator) Get(schoolID, id string) (*models.PromoCode, error) {
	return ev.store.GetCodeByID(schoolID, id)
}

// List returns all codes for a school.
func (ev *Evaluator) List(schoolID string) ([]*models.PromoCode, error) {
	return ev.store.ListCodes(schoolID)
}

// Update re-validates and stores changes to an existing code. The code text
// itself is immutable; usage counters are preserved.
func (ev *Evaluator) Update(schoolID, id string, apply func(code *models.PromoCode)) (*models.PromoCode, error) {
	code, err := ev.store.GetCodeByID(schoolID, id)
	if err != nil {
		return nil, err
	}

	apply(code)
	code.SchoolID = schoolID

	if code.DiscountType == models.DiscountPercentage && code.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidDiscount
	}
	if !code.ValidUntil.After(code.ValidFrom) {
		return nil, ErrInvalidWindow
	}
	if code.TargetType == models.TargetSpecific {
		for _, productID := range code.TargetProducts {
			if _, err := ev.catalog.GetProduct(schoolID, productID); err != nil {
				return nil, ErrInvalidTarget
			}
		}
	}

	code.UpdatedAt = ev.now()
	if err := ev.store.UpdateCode(code); err != nil {
		return nil, err
	}
	return code, nil
}

// Delete removes a code.
func (ev *Evaluator) Delete(schoolID, id string) error {
	return ev.store.DeleteCode(schoolID, id)
}

// Validate runs the full check of a code against a product and an optional
// order amount, and computes the discount it would yield. It never mutates
// usage state.
func (ev *Evaluator) Validate(schoolID, rawCode, productID string, orderAmount *decimal.Decimal) (*Result, error) {
	code, err := ev.checkCode(schoolID, rawCode)
	if err != nil {
		return nil, err
	}

	product, err := ev.catalog.GetProduct(schoolID, productID)
	if err != nil {
		return nil, err
	}
	if !code.AppliesTo(product) {
		return nil, ErrNotApplicable
	}

	amount := product.Amount
	if orderAmount != nil {
		amount = *orderAmount
	}
	if amount.LessThan(code.MinimumOrderAmount) {
		return nil, &BelowMinimumOrderError{Minimum: code.MinimumOrderAmount}
	}

	discount := CalculateDiscount(code, amount)
	return &Result{
		Code:           code,
		DiscountAmount: discount,
		FinalPrice:     amount.Sub(discount),
	}, nil
}

// ValidateByCode runs the lighter existence/window/limit check without
// binding the code to a product or amount.
func (ev *Evaluator) ValidateByCode(schoolID, rawCode string) (*models.PromoCode, error) {
	return ev.checkCode(schoolID, rawCode)
}

// Redeem re-validates a code and atomically consumes one use. The increment
// is a guarded SQL update, so racing redemptions of the last remaining use
// resolve to exactly one winner.
func (ev *Evaluator) Redeem(schoolID, rawCode string) error {
	code, err := ev.checkCode(schoolID, rawCode)
	if err != nil {
		return err
	}
	return ev.store.IncrementUsage(schoolID, code.Code)
}

func (ev *Evaluator) checkCode(schoolID, rawCode string) (*models.PromoCode, error) {
	code, err := ev.store.GetCodeByCode(schoolID, models.NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}

	now := ev.now()
	switch {
	case !code.IsActive:
		return nil, ErrInactive
	case now.Before(code.ValidFrom):
		return nil, ErrNotYetValid
	case now.After(code.ValidUntil):
		return nil, ErrExpired
	case code.UsageExhausted():
		return nil, ErrUsageLimitReached
	}
	return code, nil
}

// CalculateDiscount computes the discount a code yields on an amount:
// percentage discounts are clamped to the code's maximum, fixed discounts to
// the amount itself. The result never exceeds the amount, so the final price
// can never go negative.
func CalculateDiscount(code *models.PromoCode, amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch code.DiscountType {
	case models.DiscountPercentage:
		discount = amount.Mul(code.DiscountValue).Div(decimal.NewFromInt(100))
		if code.MaxDiscountAmount != nil && discount.GreaterThan(*code.MaxDiscountAmount) {
			discount = *code.MaxDiscountAmount
		}
	case models.DiscountFixed:
		discount = code.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}
