package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	WorkOrders     *handlers.WorkOrdersHandler
	Parts          *handlers.PartsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	privileged := auth.RequireRole(domain.RoleManager, domain.RoleAdmin)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/work-order", cfg.Tickets.CreateWorkOrder)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)
	tickets.Get("/:id/history", privileged, cfg.Tickets.History)

	workOrders := api.Group("/work-orders")
	workOrders.Post("/", cfg.WorkOrders.Create)
	workOrders.Get("/:id", cfg.WorkOrders.Get)
	workOrders.Post("/:id/assign", cfg.WorkOrders.Assign)
	workOrders.Post("/:id/approvals/maintenance", cfg.WorkOrders.Approve(domain.ApprovalTrackMaintenance))
	workOrders.Post("/:id/approvals/production", cfg.WorkOrders.Approve(domain.ApprovalTrackProduction))
	workOrders.Post("/:id/start", cfg.WorkOrders.Start)
	workOrders.Post("/:id/complete", cfg.WorkOrders.Complete)
	workOrders.Get("/:id/history", privileged, cfg.WorkOrders.History)

	api.Get("/parts/:id/transactions", privileged, cfg.Parts.Transactions)
}
