package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AppConfig holds the transport settings for NewApp.
type AppConfig struct {
	Name      string
	BodyLimit int
}

// NewApp builds the Fiber app with the middleware chain and routes.
// Every error, including 404/405/413 and recovered panics, is rendered
// as a JSON error body.
func NewApp(cfg AppConfig, handlers *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
		// Values handed to the async logger outlive the request.
		Immutable:             true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(RequestIDConfig()))
	app.Use(RequestIDToContextMiddleware())
	app.Use(RequestLoggerMiddleware())

	SetupRoutes(app, handlers)

	return app
}
