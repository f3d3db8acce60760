package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/kunalgupta7870/Sparkology-sub003/app/config"
	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
	ledgercore "github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/auth"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/promos"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/structures"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/students"
	"github.com/kunalgupta7870/Sparkology-sub003/app/services"
)

// apiErrorHandler renders every unhandled error as JSON
func apiErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	// Initialize configuration and database
	config.Load()
	db := config.GetDB()
	defer db.Close()

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Wire up stores and domain engines
	catalog := database.NewStructureCatalog(db)
	directory := database.NewStudentDirectory(db)
	ledgerStore := database.NewLedgerStore(db)
	promoStore := database.NewPromoStore(db)

	engine := ledgercore.NewEngine(ledgerStore, catalog, directory)
	engine.AddPostCommitHook(services.AuditHook)
	engine.SetReminderDispatcher(services.LogReminderDispatcher)

	evaluator := promo.NewEvaluator(promoStore, catalog)

	// Start background scheduler
	services.StartScheduler(db, engine)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: apiErrorHandler,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Setup routes
	auth.SetupAuthRoutes(app)
	ledger.SetupLedgerRoutes(app, engine, evaluator)
	promos.SetupPromoRoutes(app, evaluator)
	structures.SetupStructureRoutes(app, catalog)
	students.SetupStudentsRoutes(app, directory)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Printf("Server starting on %s", config.AppConfig.ListenAddr)
	log.Fatal(app.Listen(config.AppConfig.ListenAddr))
}
