package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/examina/examina-api/internal/config"
	"github.com/examina/examina-api/internal/handler"
	"github.com/examina/examina-api/internal/middleware"
	"github.com/examina/examina-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler *handler.GradingHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.GradingHandler != nil {
		exams := api.Group("/exams")
		// Triggering a grading run fans out model invocations; keep it slow.
		exams.Use("/:id/grade", middleware.RateLimit("grade_exam", 3, time.Minute))
		deps.GradingHandler.RegisterExamRoutes(exams)

		answers := api.Group("/answers")
		deps.GradingHandler.RegisterAnswerRoutes(answers)
	}
}
