package promo

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

const testSchool = "11111111-1111-1111-1111-111111111111"

type mockPromoStore struct {
	codes map[string]*models.PromoCode
}

func newMockPromoStore() *mockPromoStore {
	return &mockPromoStore{codes: make(map[string]*models.PromoCode)}
}

func (s *mockPromoStore) CreateCode(code *models.PromoCode) error {
	s.codes[code.ID] = code
	return nil
}

func (s *mockPromoStore) GetCodeByID(schoolID, id string) (*models.PromoCode, error) {
	code, ok := s.codes[id]
	if !ok || code.SchoolID != schoolID {
		return nil, ErrCodeNotFound
	}
	return code, nil
}

func (s *mockPromoStore) GetCodeByCode(schoolID, normalized string) (*models.PromoCode, error) {
	for _, code := range s.codes {
		if code.SchoolID == schoolID && code.Code == normalized {
			return code, nil
		}
	}
	return nil, ErrCodeNotFound
}

func (s *mockPromoStore) ListCodes(schoolID string) ([]*models.PromoCode, error) {
	var out []*models.PromoCode
	for _, code := range s.codes {
		if code.SchoolID == schoolID {
			out = append(out, code)
		}
	}
	return out, nil
}

func (s *mockPromoStore) UpdateCode(code *models.PromoCode) error {
	if _, ok := s.codes[code.ID]; !ok {
		return ErrCodeNotFound
	}
	s.codes[code.ID] = code
	return nil
}

func (s *mockPromoStore) DeleteCode(schoolID, id string) error {
	code, ok := s.codes[id]
	if !ok || code.SchoolID != schoolID {
		return ErrCodeNotFound
	}
	delete(s.codes, id)
	return nil
}

func (s *mockPromoStore) IncrementUsage(schoolID, normalized string) error {
	code, err := s.GetCodeByCode(schoolID, normalized)
	if err != nil {
		return err
	}
	if code.UsageExhausted() {
		return ErrUsageLimitReached
	}
	code.UsedCount++
	return nil
}

type mockProductCatalog struct {
	products map[string]*models.FeeStructure
}

func (c *mockProductCatalog) GetProduct(schoolID, id string) (*models.FeeStructure, error) {
	p, ok := c.products[id]
	if !ok || p.SchoolID != schoolID {
		return nil, errors.New("fee structure not found")
	}
	return p, nil
}

type promoFixture struct {
	evaluator *Evaluator
	store     *mockPromoStore
	catalog   *mockProductCatalog
}

func newPromoFixture(t *testing.T) *promoFixture {
	t.Helper()
	store := newMockPromoStore()
	catalog := &mockProductCatalog{products: make(map[string]*models.FeeStructure)}

	ev := NewEvaluator(store, catalog)
	ev.SetClock(func() time.Time { return testNow })

	return &promoFixture{evaluator: ev, store: store, catalog: catalog}
}

func (f *promoFixture) addProduct(amount float64, category string) *models.FeeStructure {
	p := &models.FeeStructure{
		ID:       uuid.NewString(),
		SchoolID: testSchool,
		Name:     "Tuition",
		Category: category,
		Amount:   decimal.NewFromFloat(amount),
		IsActive: true,
	}
	f.catalog.products[p.ID] = p
	return p
}

func (f *promoFixture) addCode(t *testing.T, code *models.PromoCode) *models.PromoCode {
	t.Helper()
	if code.ValidFrom.IsZero() {
		code.ValidFrom = testNow.AddDate(0, -1, 0)
	}
	if code.ValidUntil.IsZero() {
		code.ValidUntil = testNow.AddDate(0, 1, 0)
	}
	code.IsActive = true
	created, err := f.evaluator.Create(testSchool, code)
	require.NoError(t, err)
	return created
}

func intPtr(v int) *int { return &v }

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	f := newPromoFixture(t)

	created := f.addCode(t, &models.PromoCode{
		Code:          "  early-bird ",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
	})
	assert.Equal(t, "EARLY-BIRD", created.Code)

	_, err := f.evaluator.Create(testSchool, &models.PromoCode{
		Code:          "early-BIRD",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(5),
		TargetType:    models.TargetAll,
		ValidFrom:     testNow,
		ValidUntil:    testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateRejectsBadDefinitions(t *testing.T) {
	f := newPromoFixture(t)

	_, err := f.evaluator.Create(testSchool, &models.PromoCode{
		Code:          "TOOMUCH",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(150),
		TargetType:    models.TargetAll,
		ValidFrom:     testNow,
		ValidUntil:    testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = f.evaluator.Create(testSchool, &models.PromoCode{
		Code:          "BACKWARDS",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		ValidFrom:     testNow,
		ValidUntil:    testNow.AddDate(0, -1, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = f.evaluator.Create(testSchool, &models.PromoCode{
		Code:           "GHOST",
		DiscountType:   models.DiscountFixed,
		DiscountValue:  decimal.NewFromInt(10),
		TargetType:     models.TargetSpecific,
		TargetProducts: []string{uuid.NewString()},
		ValidFrom:      testNow,
		ValidUntil:     testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestValidatePercentageWithCap(t *testing.T) {
	f := newPromoFixture(t)
	product := f.addProduct(1000, "tuition")
	f.addCode(t, &models.PromoCode{
		Code:              "SAVE20",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(20),
		MaxDiscountAmount: decPtr(50),
		TargetType:        models.TargetAll,
	})

	result, err := f.evaluator.Validate(testSchool, "save20", product.ID, nil)
	require.NoError(t, err)

	// 20% of 1000 is 200, capped at 50.
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.FinalPrice.Equal(decimal.NewFromInt(950)))
}

func TestValidateFixedNeverGoesNegative(t *testing.T) {
	f := newPromoFixture(t)
	product := f.addProduct(10, "tuition")
	f.addCode(t, &models.PromoCode{
		Code:          "FLAT30",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(30),
		TargetType:    models.TargetAll,
	})

	result, err := f.evaluator.Validate(testSchool, "FLAT30", product.ID, nil)
	require.NoError(t, err)

	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.FinalPrice.IsZero())
}

func TestValidateReportsDistinctFailures(t *testing.T) {
	f := newPromoFixture(t)
	product := f.addProduct(1000, "tuition")

	_, err := f.evaluator.Validate(testSchool, "NOSUCH", product.ID, nil)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	inactive := f.addCode(t, &models.PromoCode{
		Code:          "SLEEPING",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
	})
	inactive.IsActive = false
	_, err = f.evaluator.Validate(testSchool, "SLEEPING", product.ID, nil)
	assert.ErrorIs(t, err, ErrInactive)

	f.addCode(t, &models.PromoCode{
		Code:          "TOMORROW",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		ValidFrom:     testNow.AddDate(0, 0, 1),
		ValidUntil:    testNow.AddDate(0, 1, 0),
	})
	_, err = f.evaluator.Validate(testSchool, "TOMORROW", product.ID, nil)
	assert.ErrorIs(t, err, ErrNotYetValid)

	f.addCode(t, &models.PromoCode{
		Code:          "YESTERDAY",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		ValidFrom:     testNow.AddDate(0, -2, 0),
		ValidUntil:    testNow.AddDate(0, 0, -1),
	})
	_, err = f.evaluator.Validate(testSchool, "YESTERDAY", product.ID, nil)
	assert.ErrorIs(t, err, ErrExpired)

	spent := f.addCode(t, &models.PromoCode{
		Code:          "SPENT",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		UsageLimit:    intPtr(1),
	})
	spent.UsedCount = 1
	_, err = f.evaluator.Validate(testSchool, "SPENT", product.ID, nil)
	assert.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestValidateTargetScopes(t *testing.T) {
	f := newPromoFixture(t)
	tuition := f.addProduct(1000, "tuition")
	transport := f.addProduct(300, "transport")

	f.addCode(t, &models.PromoCode{
		Code:           "TUITIONONLY",
		DiscountType:   models.DiscountFixed,
		DiscountValue:  decimal.NewFromInt(100),
		TargetType:     models.TargetSpecific,
		TargetProducts: []string{tuition.ID},
	})

	_, err := f.evaluator.Validate(testSchool, "TUITIONONLY", tuition.ID, nil)
	assert.NoError(t, err)

	_, err = f.evaluator.Validate(testSchool, "TUITIONONLY", transport.ID, nil)
	assert.ErrorIs(t, err, ErrNotApplicable)

	f.addCode(t, &models.PromoCode{
		Code:             "RIDEFREE",
		DiscountType:     models.DiscountFixed,
		DiscountValue:    decimal.NewFromInt(50),
		TargetType:       models.TargetCategories,
		TargetCategories: []string{"Transport"},
	})

	// Category match is case-insensitive.
	_, err = f.evaluator.Validate(testSchool, "RIDEFREE", transport.ID, nil)
	assert.NoError(t, err)
}

func TestValidateMinimumOrderAmount(t *testing.T) {
	f := newPromoFixture(t)
	product := f.addProduct(1000, "tuition")
	f.addCode(t, &models.PromoCode{
		Code:               "BIGSPENDER",
		DiscountType:       models.DiscountFixed,
		DiscountValue:      decimal.NewFromInt(100),
		MinimumOrderAmount: decimal.NewFromInt(500),
		TargetType:         models.TargetAll,
	})

	small := decimal.NewFromInt(200)
	_, err := f.evaluator.Validate(testSchool, "BIGSPENDER", product.ID, &small)

	var belowMin *BelowMinimumOrderError
	require.ErrorAs(t, err, &belowMin)
	assert.True(t, belowMin.Minimum.Equal(decimal.NewFromInt(500)))

	_, err = f.evaluator.Validate(testSchool, "BIGSPENDER", product.ID, nil)
	assert.NoError(t, err)
}

func TestValidateNeverConsumesUsage(t *testing.T) {
	f := newPromoFixture(t)
	product := f.addProduct(1000, "tuition")
	created := f.addCode(t, &models.PromoCode{
		Code:          "READONLY",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		UsageLimit:    intPtr(5),
	})

	for i := 0; i < 3; i++ {
		_, err := f.evaluator.Validate(testSchool, "READONLY", product.ID, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, created.UsedCount)
}

func TestRedeemConsumesUsage(t *testing.T) {
	f := newPromoFixture(t)
	created := f.addCode(t, &models.PromoCode{
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
		UsageLimit:    intPtr(1),
	})

	require.NoError(t, f.evaluator.Redeem(testSchool, "once"))
	assert.Equal(t, 1, created.UsedCount)

	err := f.evaluator.Redeem(testSchool, "ONCE")
	assert.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestCodesAreSchoolScoped(t *testing.T) {
	f := newPromoFixture(t)
	f.addCode(t, &models.PromoCode{
		Code:          "LOCAL",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
		TargetType:    models.TargetAll,
	})

	_, err := f.evaluator.ValidateByCode(uuid.NewString(), "LOCAL")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCalculateDiscountTable(t *testing.T) {
	pct := &models.PromoCode{DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(25)}
	got := CalculateDiscount(pct, decimal.NewFromInt(400))
	assert.True(t, got.Equal(decimal.NewFromInt(100)))

	capped := &models.PromoCode{
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(50),
		MaxDiscountAmount: decPtr(75),
	}
	got = CalculateDiscount(capped, decimal.NewFromInt(1000))
	assert.True(t, got.Equal(decimal.NewFromInt(75)))

	fixed := &models.PromoCode{DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(100)}
	got = CalculateDiscount(fixed, decimal.NewFromInt(60))
	assert.True(t, got.Equal(decimal.NewFromInt(60)))
}
