package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Users    *handlers.UsersHandler
	Products *handlers.ProductsHandler
	Orders   *handlers.OrdersHandler
	Carts    *handlers.CartsHandler
	Guard    *auth.Guard
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	app.Post("/register", cfg.Auth.Register)
	app.Post("/login", cfg.Auth.Login)
	app.Post("/logout", cfg.Auth.Logout)

	guard := cfg.Guard
	app.Get("/users", guard.Handle, guard.RequireAdmin(), cfg.Users.List)
	app.Get("/users/:username", guard.Handle, guard.RequireSelfOrAdmin(auth.SelfByUsernameParam("username")), cfg.Users.Get)
	app.Put("/users/:id", guard.Handle, guard.RequireSelfOrAdmin(auth.SelfByIDParam("id")), cfg.Users.Update)
	app.Delete("/users/:username", guard.Handle, guard.RequireAdmin(), cfg.Users.Delete)

	app.Get("/products", cfg.Products.List)
	app.Get("/products/:name", cfg.Products.Get)
	app.Post("/products", guard.Handle, guard.RequireAdmin(), cfg.Products.Create)
	app.Put("/products/:productId", guard.Handle, guard.RequireAdmin(), cfg.Products.Update)
	app.Delete("/products/:productId", guard.Handle, guard.RequireAdmin(), cfg.Products.Delete)

	app.Get("/orders", guard.Handle, guard.RequireAdmin(), cfg.Orders.List)
	app.Get("/orders/:userId", guard.Handle, guard.RequireSelfOrAdmin(auth.SelfByIDParam("userId")), cfg.Orders.ListForUser)
	app.Post("/orders", guard.Handle, guard.RequireAuthenticated(), cfg.Orders.Create)
	app.Put("/orders/:orderId", guard.Handle, guard.RequireAuthenticated(), cfg.Orders.Update)
	app.Delete("/orders/:orderId", guard.Handle, guard.RequireAuthenticated(), cfg.Orders.Delete)

	cartOwner := guard.RequireSelfOrAdmin(auth.SelfByUsernameParam("username"))
	app.Post("/users/:username/shopping_cart", guard.Handle, cartOwner, cfg.Carts.Create)
	app.Get("/users/:username/shopping_cart", guard.Handle, cartOwner, cfg.Carts.Get)
	app.Post("/users/:username/shopping_cart/:productId", guard.Handle, cartOwner, cfg.Carts.AddItem)
	app.Delete("/users/:username/shopping_cart/:productId", guard.Handle, cartOwner, cfg.Carts.RemoveItem)
	app.Get("/all_carts", guard.Handle, guard.RequireAdmin(), cfg.Carts.ListAll)
}
