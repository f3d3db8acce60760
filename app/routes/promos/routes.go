package promos

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/auth"
)

// SetupPromoRoutes sets up the promo code routes
func SetupPromoRoutes(app *fiber.App, evaluator *promo.Evaluator) {
	api := app.Group("/api/promo-codes")
	api.Use(auth.AuthMiddleware)

	api.Post("/validate", func(c *fiber.Ctx) error {
		return ValidatePromoCodeAPI(c, evaluator)
	})

	api.Post("/validate-by-code", func(c *fiber.Ctx) error {
		return ValidateByCodeAPI(c, evaluator)
	})

	api.Post("/:code/redeem", func(c *fiber.Ctx) error {
		return RedeemPromoCodeAPI(c, evaluator)
	})

	api.Get("/", func(c *fiber.Ctx) error {
		return GetPromoCodesAPI(c, evaluator)
	})

	api.Post("/", func(c *fiber.Ctx) error {
		return CreatePromoCodeAPI(c, evaluator)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetPromoCodeByIDAPI(c, evaluator)
	})

	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdatePromoCodeAPI(c, evaluator)
	})

	api.Delete("/:id", auth.RoleMiddleware("admin"), func(c *fiber.Ctx) error {
		return DeletePromoCodeAPI(c, evaluator)
	})
}
