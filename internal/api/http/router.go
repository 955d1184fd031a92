package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/EnuliForge/kwikorder-engine/internal/api/http/handlers"
	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Orders         *handlers.OrdersHandler
	Tickets        *handlers.TicketsHandler
	StationAuth    *handlers.StationAuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Get("/api/ping", cfg.Health.Ping)

	authGroup := app.Group("/auth")
	authGroup.Post("/station/login", cfg.StationAuth.Login)

	v1 := app.Group("/api/v1")
	v1.Post("/orders", cfg.Orders.CreateOrder)
	v1.Get("/orders/:code", cfg.Orders.GetOrder)

	tickets := v1.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/status", cfg.Tickets.TransitionStatus)
	tickets.Get("/:id/events", cfg.Tickets.ListEvents)
}
