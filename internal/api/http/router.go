package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Queries        *handlers.QueriesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)
	authGroup.Get("/heads", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Auth.Heads)

	queries := api.Group("/queries", cfg.AuthMiddleware.Handle)
	queries.Post("/", auth.RequireRole(domain.RoleParticipant), cfg.Queries.Create)
	queries.Get("/my", auth.RequireRole(domain.RoleParticipant), cfg.Queries.ListMine)
	queries.Get("/assigned", auth.RequireRole(domain.RoleHead), cfg.Queries.ListAssigned)
	queries.Get("/all", auth.RequireRole(domain.RoleAdmin), cfg.Queries.ListAll)
	queries.Patch("/assign", auth.RequireRole(domain.RoleAdmin), cfg.Queries.Assign)
	queries.Patch("/resolve", auth.RequireRole(domain.RoleHead, domain.RoleAdmin), cfg.Queries.Resolve)
	queries.Patch("/escalate", auth.RequireRole(domain.RoleHead), cfg.Queries.Escalate)
	queries.Patch("/reopen", auth.RequireRole(domain.RoleParticipant), cfg.Queries.Reopen)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/block", cfg.Admin.ToggleBlock)
}
