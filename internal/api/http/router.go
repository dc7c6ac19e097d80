package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-workflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Jobs           *handlers.JobsHandler
	SLA            *handlers.SLAHandler
	Messages       *handlers.MessagesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListTicketHistory)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)

	jobs := api.Group("/jobs")
	jobs.Post("/", cfg.Jobs.EnqueueJob)
	jobs.Get("/", cfg.Jobs.ListJobs)
	jobs.Get("/:id", cfg.Jobs.GetJob)

	sla := api.Group("/sla")
	sla.Post("/automation", auth.RequireSupervisor(), cfg.SLA.RunAutomation)
	sla.Get("/breaches", auth.RequireSupervisor(), cfg.SLA.ListBreaches)

	api.Get("/messages", auth.RequireSupervisor(), cfg.Messages.ListMessages)
}
