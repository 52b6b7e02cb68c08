package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intercom-bridge/internal/api/http/handlers"
	"github.com/spec-kit/intercom-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhook        *handlers.WebhookHandler
	Interactions   *handlers.InteractionsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhook", cfg.Webhook.Handle)
	app.Post("/interactions", cfg.Interactions.Handle)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/status", cfg.Admin.Status)
	admin.Post("/sync", cfg.Admin.Sync)
	admin.Post("/cleanup", cfg.Admin.Cleanup)
}
