package structures

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/auth"
)

// SetupStructureRoutes sets up the fee structure routes
func SetupStructureRoutes(app *fiber.App, catalog *database.StructureCatalog) {
	api := app.Group("/api/fee-structures")
	api.Use(auth.AuthMiddleware)

	api.Get("/", func(c *fiber.Ctx) error {
		return GetStructuresAPI(c, catalog)
	})

	api.Post("/", func(c *fiber.Ctx) error {
		return CreateStructureAPI(c, catalog)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetStructureByIDAPI(c, catalog)
	})

	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdateStructureAPI(c, catalog)
	})

	api.Delete("/:id", auth.RoleMiddleware("admin"), func(c *fiber.Ctx) error {
		return DeleteStructureAPI(c, catalog)
	})
}
