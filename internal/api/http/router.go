package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	Users          *handlers.UsersHandler
	Photos         *handlers.PhotosHandler
	AuthMiddleware *auth.AuthMiddleware
	// IssueLimit guards issue creation; nil disables it.
	IssueLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	app.Get("/public/issues/samples", cfg.Issues.Samples)
	app.Get("/photos/:key", cfg.Photos.Get)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireRole())
	createChain := []fiber.Handler{auth.RequireRole(domain.RoleCitizen)}
	if cfg.IssueLimit != nil {
		createChain = append(createChain, cfg.IssueLimit)
	}
	createChain = append(createChain, cfg.Issues.Create)
	issues.Post("/", createChain...)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Put("/:id/status", cfg.Issues.UpdateStatus)
	issues.Put("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Issues.Assign)
	issues.Post("/:id/comments", cfg.Issues.Comment)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireRole())
	users.Put("/me/location", auth.RequireRole(domain.RoleWorker), cfg.Users.UpdateOwnLocation)
	adminOnly := auth.RequireRole(domain.RoleAdmin)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Post("/", adminOnly, cfg.Users.Create)
	users.Put("/:email/role", adminOnly, cfg.Users.UpdateRole)
	users.Put("/:email/location", adminOnly, cfg.Users.SetLocation)
}
