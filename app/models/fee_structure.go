package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// FeeStructure defines a chargeable fee for a school: how much, how often,
// and which classes it applies to. The ledger engine treats structures as a
// read-only catalog; only the discount rule feeds into record creation.
type FeeStructure struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	SchoolID      string          `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Name          string          `json:"name" gorm:"not null" validate:"required"`
	Category      string          `json:"category" gorm:"not null;index" validate:"required"`
	Amount        decimal.Decimal `json:"amount" gorm:"not null;type:numeric(12,2)" validate:"required"`
	Frequency     Frequency       `json:"frequency" gorm:"not null;type:varchar(20)" validate:"required,oneof=monthly one_time custom"`
	ClassScope    pq.StringArray  `json:"class_scope,omitempty" gorm:"type:uuid[]"`
	DiscountType  *DiscountType   `json:"discount_type,omitempty" gorm:"type:varchar(20)" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discount_value" gorm:"type:numeric(12,2);default:0"`
	LateFeeAmount decimal.Decimal `json:"late_fee_amount" gorm:"type:numeric(12,2);default:0"`
	IsActive      bool            `json:"is_active" gorm:"default:true;index"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" gorm:"index"`
}

// AppliesToClass reports whether the structure's class scope includes the
// given class. An empty scope means every class.
func (fs *FeeStructure) AppliesToClass(classID string) bool {
	if len(fs.ClassScope) == 0 {
		return true
	}
	for _, id := range fs.ClassScope {
		if id == classID {
			return true
		}
	}
	return false
}

// ComputeDiscount evaluates the structure's discount rule against a base
// amount. The result never exceeds the amount.
func (fs *FeeStructure) ComputeDiscount(amount decimal.Decimal) decimal.Decimal {
	if fs.DiscountType == nil || fs.DiscountValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch *fs.DiscountType {
	case DiscountPercentage:
		discount = amount.Mul(fs.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = fs.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(amount) {
		return amount
	}
	return discount
}
