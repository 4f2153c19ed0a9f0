package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterStorefrontRoutes registers the storefront JSON API and pages.
// Every route runs deps.Middleware, which carries the visitor session.
func RegisterStorefrontRoutes(e *echo.Echo, deps StorefrontDeps) {
	strict := deps.StrictLimit
	if strict == nil {
		strict = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	api := e.Group("/api", deps.Middleware...)
	pages := e.Group("", deps.Middleware...)

	// Catalog
	api.GET("/products", deps.CatalogHandler.ListProducts)
	api.GET("/products/:handle", deps.CatalogHandler.Product)
	api.GET("/collections", deps.CatalogHandler.ListCollections)
	api.GET("/collections/:handle", deps.CatalogHandler.Collection)
	api.GET("/search", deps.CatalogHandler.Search)

	// Cart
	api.GET("/cart", deps.CartHandler.Get)
	api.DELETE("/cart", deps.CartHandler.Clear)
	api.POST("/cart/items", deps.CartHandler.Add)
	api.PUT("/cart/items/:variantId", deps.CartHandler.Update)
	api.DELETE("/cart/items/:variantId", deps.CartHandler.Remove)
	api.POST("/cart/discount", deps.CartHandler.ApplyDiscount)
	api.DELETE("/cart/discount", deps.CartHandler.RemoveDiscount)

	// Wishlist and compare
	registerList(api.Group("/wishlist"), deps.WishlistHandler)
	registerList(api.Group("/compare"), deps.CompareHandler)

	// Checkout
	api.POST("/checkout/quote", deps.CheckoutHandler.Quote)
	api.POST("/checkout", deps.CheckoutHandler.Submit, strict)
	pages.GET("/checkout/success", deps.CheckoutHandler.Success)

	// Orders
	api.GET("/orders", deps.OrderHandler.List)
	api.POST("/orders/:id/reorder", deps.OrderHandler.Reorder)
	pages.GET("/account/orders", deps.OrderHandler.Page)

	// Auth
	api.POST("/auth/login", deps.AuthHandler.Login, strict)
	api.POST("/auth/register", deps.AuthHandler.Register, strict)
	api.GET("/auth/me", deps.AuthHandler.Me)
	api.POST("/auth/logout", deps.AuthHandler.Logout)
}

type listRoutes interface {
	Get(c echo.Context) error
	Add(c echo.Context) error
	Remove(c echo.Context) error
	Clear(c echo.Context) error
}

func registerList(g *echo.Group, h listRoutes) {
	g.GET("", h.Get)
	g.POST("", h.Add)
	g.DELETE("", h.Clear)
	g.DELETE("/:productId", h.Remove)
}

// RegisterOpsRoutes registers health, metrics and provider webhook
// endpoints. They skip the storefront middleware so probes and webhooks never
// mint sessions.
func RegisterOpsRoutes(e *echo.Echo, deps OpsDeps) {
	e.GET("/health", deps.HealthHandler.Health)
	if deps.MetricsHandler != nil {
		e.GET("/metrics", deps.MetricsHandler)
	}
	if deps.StripeWebhook != nil {
		e.POST("/webhooks/stripe", deps.StripeWebhook.Handle)
	}
}
