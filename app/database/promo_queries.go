package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
)

// PromoStore is the PostgreSQL implementation of promo.Store.
type PromoStore struct {
	db *sql.DB
}

func NewPromoStore(db *sql.DB) *PromoStore {
	return &PromoStore{db: db}
}

const promoColumns = `id, school_id, code, description, discount_type, discount_value,
	max_discount_amount, minimum_order_amount, target_type, target_products, target_categories,
	usage_limit, used_count, valid_from, valid_until, is_active, created_at, updated_at`

func (s *PromoStore) CreateCode(code *models.PromoCode) error {
	query := `INSERT INTO promo_codes
		(id, school_id, code, description, discount_type, discount_value, max_discount_amount,
		 minimum_order_amount, target_type, target_products, target_categories, usage_limit,
		 used_count, valid_from, valid_until, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, $15, NOW(), NOW())`

	_, err := s.db.Exec(query,
		code.ID, code.SchoolID, code.Code, code.Description, string(code.DiscountType), code.DiscountValue,
		code.MaxDiscountAmount, code.MinimumOrderAmount, string(code.TargetType),
		pq.Array(code.TargetProducts), pq.Array(code.TargetCategories), code.UsageLimit,
		code.ValidFrom, code.ValidUntil, code.IsActive,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return promo.ErrDuplicateCode
		}
		return errors.Wrap(err, "failed to insert promo code")
	}
	return nil
}

func (s *PromoStore) GetCodeByID(schoolID, id string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1 AND school_id = $2`
	return scanPromoCode(s.db.QueryRow(query, id, schoolID))
}

func (s *PromoStore) GetCodeByCode(schoolID, normalized string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE school_id = $1 AND code = $2`
	return scanPromoCode(s.db.QueryRow(query, schoolID, normalized))
}

func (s *PromoStore) ListCodes(schoolID string) ([]*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE school_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.Query(query, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list promo codes")
	}
	defer rows.Close()

	var codes []*models.PromoCode
	for rows.Next() {
		code, err := scanPromoCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *PromoStore) UpdateCode(code *models.PromoCode) error {
	query := `UPDATE promo_codes SET
			description = $1, discount_type = $2, discount_value = $3, max_discount_amount = $4,
			minimum_order_amount = $5, target_type = $6, target_products = $7, target_categories = $8,
			usage_limit = $9, valid_from = $10, valid_until = $11, is_active = $12, updated_at = NOW()
		WHERE id = $13 AND school_id = $14`

	result, err := s.db.Exec(query,
		code.Description, string(code.DiscountType), code.DiscountValue, code.MaxDiscountAmount,
		code.MinimumOrderAmount, string(code.TargetType), pq.Array(code.TargetProducts),
		pq.Array(code.TargetCategories), code.UsageLimit, code.ValidFrom, code.ValidUntil,
		code.IsActive, code.ID, code.SchoolID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update promo code")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return promo.ErrCodeNotFound
	}
	return nil
}

func (s *PromoStore) DeleteCode(schoolID, id string) error {
	result, err := s.db.Exec(`DELETE FROM promo_codes WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return errors.Wrap(err, "failed to delete promo code")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return promo.ErrCodeNotFound
	}
	return nil
}

// IncrementUsage consumes one use with a guarded update: the increment only
// lands while used_count is still under the limit, so racing redemptions of
// the last use resolve to a single winner.
func (s *PromoStore) IncrementUsage(schoolID, normalized string) error {
	query := `UPDATE promo_codes SET used_count = used_count + 1, updated_at = NOW()
		WHERE school_id = $1 AND code = $2
		  AND (usage_limit IS NULL OR used_count < usage_limit)`

	result, err := s.db.Exec(query, schoolID, normalized)
	if err != nil {
		return errors.Wrap(err, "failed to increment promo usage")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read increment result")
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM promo_codes WHERE school_id = $1 AND code = $2)`,
			schoolID, normalized).Scan(&exists); err != nil {
			return errors.Wrap(err, "failed to check promo code existence")
		}
		if !exists {
			return promo.ErrCodeNotFound
		}
		return promo.ErrUsageLimitReached
	}
	return nil
}

func scanPromoCode(row rowScanner) (*models.PromoCode, error) {
	code := &models.PromoCode{}
	var usageLimit sql.NullInt64
	err := row.Scan(
		&code.ID, &code.SchoolID, &code.Code, &code.Description, &code.DiscountType, &code.DiscountValue,
		&code.MaxDiscountAmount, &code.MinimumOrderAmount, &code.TargetType,
		pq.Array(&code.TargetProducts), pq.Array(&code.TargetCategories),
		&usageLimit, &code.UsedCount, &code.ValidFrom, &code.ValidUntil, &code.IsActive,
		&code.CreatedAt, &code.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, promo.ErrCodeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan promo code")
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		code.UsageLimit = &limit
	}
	return code, nil
}
