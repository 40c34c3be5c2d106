package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/faraddouglas/conecsa-api/internal/api/http/handlers"
	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/domain"
)

// Route declares one endpoint together with its access requirement.
type Route struct {
	Method        string
	Path          string
	Handler       fiber.Handler
	Authenticated bool
	Roles         auth.RoleRequirement
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// Routes returns the route table of the service.
func Routes(cfg RouteConfig) []Route {
	admin := auth.Roles(domain.RoleAdmin)

	routes := []Route{
		{Method: fiber.MethodGet, Path: "/health/live", Handler: cfg.Health.Live},
		{Method: fiber.MethodGet, Path: "/health/ready", Handler: cfg.Health.Ready},

		{Method: fiber.MethodPost, Path: "/auth/login", Handler: cfg.Auth.Login},
		{Method: fiber.MethodPost, Path: "/auth/register", Handler: cfg.Auth.Register},
		{Method: fiber.MethodPost, Path: "/auth/forget", Handler: cfg.Auth.Forget},
		{Method: fiber.MethodPost, Path: "/auth/reset", Handler: cfg.Auth.Reset},
		{Method: fiber.MethodPost, Path: "/auth/me", Handler: cfg.Auth.Me, Authenticated: true},
		{Method: fiber.MethodPost, Path: "/auth/photo", Handler: cfg.Auth.Photo, Authenticated: true},

		{Method: fiber.MethodPost, Path: "/users", Handler: cfg.Users.Create, Authenticated: true, Roles: admin},
		{Method: fiber.MethodGet, Path: "/users", Handler: cfg.Users.List, Authenticated: true, Roles: admin},
		{Method: fiber.MethodGet, Path: "/users/:id", Handler: cfg.Users.Get, Authenticated: true, Roles: admin},
		{Method: fiber.MethodPut, Path: "/users/:id", Handler: cfg.Users.Update, Authenticated: true, Roles: admin},
		{Method: fiber.MethodPatch, Path: "/users/:id", Handler: cfg.Users.Patch, Authenticated: true, Roles: admin},
		{Method: fiber.MethodDelete, Path: "/users/:id", Handler: cfg.Users.Delete, Authenticated: true, Roles: admin},
	}

	if cfg.Metrics != nil {
		routes = append(routes, Route{Method: fiber.MethodGet, Path: "/metrics", Handler: cfg.Metrics})
	}
	return routes
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	for _, route := range Routes(cfg) {
		app.Add(route.Method, route.Path, chain(route, cfg.AuthMiddleware)...)
	}
}

// chain puts authentication ahead of the role check. A route declaring roles is always authenticated.
func chain(route Route, authMW *auth.AuthMiddleware) []fiber.Handler {
	stack := make([]fiber.Handler, 0, 3)
	if route.Authenticated || !route.Roles.Empty() {
		stack = append(stack, authMW.Handle)
	}
	if !route.Roles.Empty() {
		stack = append(stack, auth.RequireRoles(route.Roles))
	}
	return append(stack, route.Handler)
}
