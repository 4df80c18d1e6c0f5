package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the fiber application with all analysis routes registered.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Callsheet API")
	})

	a := app.Group("/analyses")
	a.Post("/", handlers.AnalyzeScript)
	a.Post("/file", handlers.AnalyzeScriptFile)
	a.Get("/:threadID", handlers.GetAnalysis)
	a.Post("/:threadID/feedback", handlers.SubmitFeedback)
	a.Get("/:threadID/scenes/:sceneID", handlers.GetScene)
	a.Get("/:threadID/departments/:department", handlers.GetDepartment)

	app.Get("/health", handlers.HealthCheck)

	return app
}
