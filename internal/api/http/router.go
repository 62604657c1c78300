package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Publications   *handlers.PublicationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("", auth.RequireRole(domain.UserRoleAdmin), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
	users.Get("/:id/publications", cfg.Users.ListPublications)

	publications := app.Group("/publications", cfg.AuthMiddleware.Handle)
	publications.Post("", cfg.Publications.Create)
	publications.Get("", cfg.Publications.List)
	publications.Get("/:id", cfg.Publications.Get)
	publications.Patch("/:id", cfg.Publications.Update)
	publications.Delete("/:id", cfg.Publications.Retire)
	publications.Post("/:id/reserve", cfg.Publications.Reserve)
	publications.Post("/:id/unreserve", cfg.Publications.Unreserve)
}
