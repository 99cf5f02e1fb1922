package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-api/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-api/internal/auth"
	"github.com/spec-kit/marketplace-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}
	authGroup.Post("/logout", append(authenticated, cfg.Auth.Logout)...)
	authGroup.Get("/me", append(authenticated, cfg.Auth.Me)...)
	authGroup.Post("/password/change", append(authenticated, cfg.Auth.ChangePassword)...)

	app.Get("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.Roles()...), cfg.Dashboard.Show)

	moderation := app.Group("/moderation", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleModerator))
	moderation.Get("/users/:id", cfg.Dashboard.LookupUser)
	moderation.Get("/metrics", cfg.Health.Metrics)
}
