package ledger

import (
	"github.com/gofiber/fiber/v2"

	ledgercore "github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/auth"
)

// SetupLedgerRoutes sets up the fee ledger routes
func SetupLedgerRoutes(app *fiber.App, engine *ledgercore.Engine, evaluator *promo.Evaluator) {
	api := app.Group("/api/ledger")
	api.Use(auth.AuthMiddleware)

	// Reports come before the :id routes so "dues" is not parsed as an ID.
	api.Get("/dues", func(c *fiber.Ctx) error {
		return GetDuesAPI(c, engine)
	})

	api.Get("/overdue", func(c *fiber.Ctx) error {
		return GetOverdueAPI(c, engine)
	})

	api.Get("/stats", func(c *fiber.Ctx) error {
		return GetStatsAPI(c, engine)
	})

	api.Post("/issue", func(c *fiber.Ctx) error {
		return IssueFeesAPI(c, engine)
	})

	api.Get("/", func(c *fiber.Ctx) error {
		return GetRecordsAPI(c, engine)
	})

	api.Post("/", func(c *fiber.Ctx) error {
		return CreateRecordAPI(c, engine, evaluator)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetRecordByIDAPI(c, engine)
	})

	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdateRecordAPI(c, engine)
	})

	api.Post("/:id/payments", func(c *fiber.Ctx) error {
		return AddPaymentAPI(c, engine)
	})

	api.Post("/:id/cancel", func(c *fiber.Ctx) error {
		return CancelRecordAPI(c, engine)
	})

	api.Delete("/:id", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return DeleteRecordAPI(c, engine)
	})

	api.Post("/:id/remind", func(c *fiber.Ctx) error {
		return SendReminderAPI(c, engine)
	})
}
