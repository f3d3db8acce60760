package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PromoCode is a redeemable discount rule with scope, validity window and
// usage cap. Codes are stored uppercase and matched case-insensitively.
type PromoCode struct {
	ID                 string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID           string          `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Code               string          `json:"code" gorm:"uniqueIndex;not null" validate:"required"`
	Description        *string         `json:"description,omitempty" gorm:"type:text"`
	DiscountType       DiscountType    `json:"discount_type" gorm:"not null;type:varchar(20)" validate:"required,oneof=percentage fixed"`
	DiscountValue      decimal.Decimal `json:"discount_value" gorm:"not null;type:numeric(12,2)" validate:"required"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty" gorm:"type:numeric(12,2)"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount" gorm:"type:numeric(12,2);default:0"`
	TargetType         TargetType      `json:"target_type" gorm:"not null;default:'all';type:varchar(20)" validate:"required,oneof=all specific category"`
	TargetProducts     pq.StringArray  `json:"target_products,omitempty" gorm:"type:uuid[]"`
	TargetCategories   pq.StringArray  `json:"target_categories,omitempty" gorm:"type:text[]"`
	UsageLimit         *int            `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	UsedCount          int             `json:"used_count" gorm:"default:0"`
	ValidFrom          time.Time       `json:"valid_from" gorm:"not null"`
	ValidUntil         time.Time       `json:"valid_until" gorm:"not null"`
	IsActive           bool            `json:"is_active" gorm:"default:true;index"`
	CreatedAt          time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// NormalizeCode uppercases and trims a promo code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WithinWindow reports whether now falls inside the validity window.
func (p *PromoCode) WithinWindow(now time.Time) bool {
	return !now.Before(p.ValidFrom) && !now.After(p.ValidUntil)
}

// UsageExhausted reports whether the usage cap has been reached. A nil limit
// means unlimited use.
func (p *PromoCode) UsageExhausted() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// AppliesTo reports whether the code's target scope includes the product.
func (p *PromoCode) AppliesTo(product *FeeStructure) bool {
	switch p.TargetType {
	case TargetAll:
		return true
	case TargetSpecific:
		for _, id := range p.TargetProducts {
			if id == product.ID {
				return true
			}
		}
	case TargetCategories:
		for _, cat := range p.TargetCategories {
			if strings.EqualFold(cat, product.Category) {
				return true
			}
		}
	}
	return false
}
