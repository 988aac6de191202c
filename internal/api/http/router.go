package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jlr/user-service/internal/api/http/handlers"
	"github.com/jlr/user-service/internal/auth"
	"github.com/jlr/user-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Metrics *handlers.MetricsHandler
	Users   *handlers.UsersHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Show)
	}

	users := app.Group("/api/users")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Post("/logout", cfg.Users.Logout)

	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateProfile)
	users.Post("/me/password", cfg.Users.ChangePassword)
	users.Get("/dealers/:dealerId/managers", cfg.Users.DealerManagers)
	users.Get("/", auth.RequireRole(domain.RoleAdmin, domain.RoleDealerManager), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/:id/deactivate", auth.RequireRole(domain.RoleAdmin), cfg.Users.Deactivate)
}
