package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures the application routes.
func SetupRoutes(app *fiber.App, handlers *Handlers) {
	// Status page
	app.Get("/", handlers.Status)

	// Webhook endpoint called by the filter-rule service
	app.Post("/webhook", handlers.Webhook)

	// Operational endpoints, no auth
	app.Get("/health", handlers.Health)
	app.Get("/stats", handlers.Stats)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
