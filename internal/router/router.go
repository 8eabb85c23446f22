package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-exam-api/internal/config"
	"github.com/noah-isme/gema-exam-api/internal/handler"
	"github.com/noah-isme/gema-exam-api/internal/middleware"
	"github.com/noah-isme/gema-exam-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentExamHandler    *handler.StudentExamHandler
	ClassAnalyticsHandler *handler.ClassAnalyticsHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	if deps.StudentExamHandler != nil {
		student := api.Group("/student/exams", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent))
		deps.StudentExamHandler.Register(student, middleware.RateLimit("exam_submit", cfg.SubmitRateLimit, time.Minute))
	}

	if deps.ClassAnalyticsHandler != nil {
		teacher := api.Group("/teacher/exam-results", jwtMiddleware, middleware.RequireRole(middleware.StaffRoles...))
		deps.ClassAnalyticsHandler.Register(teacher)
	}
}
