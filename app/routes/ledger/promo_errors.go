package ledger

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
)

// respondPromoError maps promo validation failures that surface during
// record creation.
func respondPromoError(c *fiber.Ctx, err error) error {
	var belowMin *promo.BelowMinimumOrderError

	switch {
	case errors.Is(err, promo.ErrCodeNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrNotYetValid),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageLimitReached),
		errors.Is(err, promo.ErrNotApplicable):
		return c.Status(409).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.As(err, &belowMin):
		return c.Status(409).JSON(fiber.Map{
			"success":       false,
			"error":         err.Error(),
			"minimum_order": belowMin.Minimum,
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to validate promo code")
	}
}
