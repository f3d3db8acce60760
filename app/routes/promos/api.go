package promos

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
)

var validate = validator.New()

func schoolID(c *fiber.Ctx) string {
	return c.Locals("school_id").(string)
}

// respondPromoError maps promo failures onto the API error taxonomy.
func respondPromoError(c *fiber.Ctx, err error) error {
	var belowMin *promo.BelowMinimumOrderError

	switch {
	case errors.Is(err, promo.ErrCodeNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, promo.ErrDuplicateCode),
		errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrNotYetValid),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageLimitReached),
		errors.Is(err, promo.ErrNotApplicable):
		return c.Status(409).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, promo.ErrInvalidDiscount),
		errors.Is(err, promo.ErrInvalidWindow),
		errors.Is(err, promo.ErrInvalidTarget):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.As(err, &belowMin):
		return c.Status(409).JSON(fiber.Map{
			"success":       false,
			"error":         err.Error(),
			"minimum_order": belowMin.Minimum,
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process promo code request")
	}
}

type CreatePromoCodeRequest struct {
	Code               string              `json:"code" validate:"required"`
	Description        *string             `json:"description"`
	DiscountType       models.DiscountType `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue      decimal.Decimal     `json:"discount_value" validate:"required"`
	MaxDiscountAmount  *decimal.Decimal    `json:"max_discount_amount"`
	MinimumOrderAmount decimal.Decimal     `json:"minimum_order_amount"`
	TargetType         models.TargetType   `json:"target_type" validate:"required,oneof=all specific category"`
	TargetProducts     []string            `json:"target_products" validate:"omitempty,dive,uuid"`
	TargetCategories   []string            `json:"target_categories"`
	UsageLimit         *int                `json:"usage_limit" validate:"omitempty,gt=0"`
	ValidFrom          time.Time           `json:"valid_from" validate:"required"`
	ValidUntil         time.Time           `json:"valid_until" validate:"required"`
	IsActive           *bool               `json:"is_active"`
}

// CreatePromoCodeAPI creates a new promo code for the school.
func CreatePromoCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	var req CreatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	code := &models.PromoCode{
		Code:               req.Code,
		Description:        req.Description,
		DiscountType:       req.DiscountType,
		DiscountValue:      req.DiscountValue,
		MaxDiscountAmount:  req.MaxDiscountAmount,
		MinimumOrderAmount: req.MinimumOrderAmount,
		TargetType:         req.TargetType,
		TargetProducts:     req.TargetProducts,
		TargetCategories:   req.TargetCategories,
		UsageLimit:         req.UsageLimit,
		ValidFrom:          req.ValidFrom,
		ValidUntil:         req.ValidUntil,
		IsActive:           true,
	}
	if req.IsActive != nil {
		code.IsActive = *req.IsActive
	}

	created, err := evaluator.Create(schoolID(c), code)
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
		"message": "Promo code created successfully",
	})
}

// GetPromoCodesAPI lists the school's promo codes.
func GetPromoCodesAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	codes, err := evaluator.List(schoolID(c))
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    codes,
	})
}

// GetPromoCodeByIDAPI returns a single promo code.
func GetPromoCodeByIDAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	code, err := evaluator.Get(schoolID(c), c.Params("id"))
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    code,
	})
}

type UpdatePromoCodeRequest struct {
	Description        *string              `json:"description"`
	DiscountType       *models.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue      *decimal.Decimal     `json:"discount_value"`
	MaxDiscountAmount  *decimal.Decimal     `json:"max_discount_amount"`
	MinimumOrderAmount *decimal.Decimal     `json:"minimum_order_amount"`
	TargetType         *models.TargetType   `json:"target_type" validate:"omitempty,oneof=all specific category"`
	TargetProducts     []string             `json:"target_products" validate:"omitempty,dive,uuid"`
	TargetCategories   []string             `json:"target_categories"`
	UsageLimit         *int                 `json:"usage_limit" validate:"omitempty,gt=0"`
	ValidFrom          *time.Time           `json:"valid_from"`
	ValidUntil         *time.Time           `json:"valid_until"`
	IsActive           *bool                `json:"is_active"`
}

// UpdatePromoCodeAPI updates an existing promo code. The code text itself
// cannot be changed.
func UpdatePromoCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	var req UpdatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	updated, err := evaluator.Update(schoolID(c), c.Params("id"), func(code *models.PromoCode) {
		if req.Description != nil {
			code.Description = req.Description
		}
		if req.DiscountType != nil {
			code.DiscountType = *req.DiscountType
		}
		if req.DiscountValue != nil {
			code.DiscountValue = *req.DiscountValue
		}
		if req.MaxDiscountAmount != nil {
			code.MaxDiscountAmount = req.MaxDiscountAmount
		}
		if req.MinimumOrderAmount != nil {
			code.MinimumOrderAmount = *req.MinimumOrderAmount
		}
		if req.TargetType != nil {
			code.TargetType = *req.TargetType
		}
		if req.TargetProducts != nil {
			code.TargetProducts = req.TargetProducts
		}
		if req.TargetCategories != nil {
			code.TargetCategories = req.TargetCategories
		}
		if req.UsageLimit != nil {
			code.UsageLimit = req.UsageLimit
		}
		if req.ValidFrom != nil {
			code.ValidFrom = *req.ValidFrom
		}
		if req.ValidUntil != nil {
			code.ValidUntil = *req.ValidUntil
		}
		if req.IsActive != nil {
			code.IsActive = *req.IsActive
		}
	})
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    updated,
		"message": "Promo code updated successfully",
	})
}

// DeletePromoCodeAPI removes a promo code.
func DeletePromoCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	if err := evaluator.Delete(schoolID(c), c.Params("id")); err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Promo code deleted successfully",
	})
}

type ValidatePromoCodeRequest struct {
	Code        string           `json:"code" validate:"required"`
	ProductID   string           `json:"product_id" validate:"required,uuid"`
	OrderAmount *decimal.Decimal `json:"order_amount"`
}

// ValidatePromoCodeAPI checks a code against a product and amount and
// returns the discount it would yield. No usage is consumed.
func ValidatePromoCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	var req ValidatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := evaluator.Validate(schoolID(c), req.Code, req.ProductID, req.OrderAmount)
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"message": "Promo code is valid",
	})
}

// ValidateByCodeAPI runs the lighter check of a code on its own, without
// binding it to a product or amount.
func ValidateByCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	type ValidateByCodeRequest struct {
		Code string `json:"code" validate:"required"`
	}

	var req ValidateByCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	code, err := evaluator.ValidateByCode(schoolID(c), req.Code)
	if err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    code,
		"message": "Promo code is valid",
	})
}

// RedeemPromoCodeAPI consumes one use of a code.
func RedeemPromoCodeAPI(c *fiber.Ctx, evaluator *promo.Evaluator) error {
	if err := evaluator.Redeem(schoolID(c), c.Params("code")); err != nil {
		return respondPromoError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Promo code redeemed successfully",
	})
}
