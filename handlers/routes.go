package handlers

import (
	"github.com/gofiber/fiber/v2"

	"reflection-garden/events"
	"reflection-garden/metrics"
	"reflection-garden/middleware"
	"reflection-garden/services"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Services *services.Services
	Hub      *events.Hub
	Metrics  metrics.Recorder
}

// Setup mounts the health probe and every secured /s/ route. The caller
// installs gateway auth and /metrics.
func Setup(app *fiber.App, d Deps) {
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	secured := app.Group("/s", middleware.UserContextMiddleware(d.Services.Users))

	SetupEngagementRoutes(secured, d.Services)
	SetupGoalRoutes(secured, d.Services.Goals)
	SetupGroupRoutes(secured, d.Services)
	SetupStreamRoutes(secured, d.Hub, d.Services.Groups, d.Metrics)
}
