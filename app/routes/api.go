// Package routes maps URLs onto controllers.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Handlers are the controllers the routes dispatch to.
type Handlers struct {
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	Orders     *controllers.OrderController
	Auth       *controllers.AuthController
	Feed       *controllers.FeedController
	Health     *controllers.HealthController
	GraphQL    http.Handler
}

func RegisterAPI(r *router.Router, h Handlers) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", "health", ctx.Wrap(h.Health.Check))
	r.Get("/metrics", "metrics", metrics.Handler())
	if h.GraphQL != nil {
		r.HandleFunc("/graphql", h.GraphQL.ServeHTTP)
	}

	api := r.Group("/api")

	// ─── Public ──────────────────────────────────────────────────────────────
	api.Post("/auth/login", "auth.login", ctx.Wrap(h.Auth.Login))

	api.Get("/products", "products.index", ctx.Wrap(h.Products.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(h.Products.Show))
	api.Get("/categories", "categories.index", ctx.Wrap(h.Categories.Index))
	api.Get("/categories/{id}", "categories.show", ctx.Wrap(h.Categories.Show))

	api.Post("/orders", "orders.store", ctx.Wrap(h.Orders.Store))
	api.Post("/orders/quote", "orders.quote", ctx.Wrap(h.Orders.Quote))

	// ─── Admin ───────────────────────────────────────────────────────────────
	admin := api.Group("", middleware.AuthMiddleware, rbac.HasRole(models.RoleAdmin))

	admin.Post("/products", "products.store", ctx.Wrap(h.Products.Store))
	admin.Put("/products/{id}", "products.update", ctx.Wrap(h.Products.Update))
	admin.Delete("/products/{id}", "products.destroy", ctx.Wrap(h.Products.Destroy))

	admin.Post("/categories", "categories.store", ctx.Wrap(h.Categories.Store))
	admin.Put("/categories/{id}", "categories.update", ctx.Wrap(h.Categories.Update))
	admin.Delete("/categories/{id}", "categories.destroy", ctx.Wrap(h.Categories.Destroy))

	admin.Get("/orders", "orders.index", ctx.Wrap(h.Orders.Index))
	admin.Post("/orders/export", "orders.export", ctx.Wrap(h.Orders.Export))
	admin.Get("/orders/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	admin.Put("/orders/{id}/status", "orders.status", ctx.Wrap(h.Orders.UpdateStatus))
	admin.Get("/orders/{id}/audit", "orders.audit", ctx.Wrap(h.Orders.Audit))

	admin.Get("/admin/feed", "admin.feed", ctx.Wrap(h.Feed.Stream))
}
