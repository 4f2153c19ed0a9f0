package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/handler/storefront"
	"github.com/dukerupert/britishfloors/internal/handler/webhook"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog (products, collections, search)
	CatalogHandler *storefront.CatalogHandler

	// Cart (items, discount)
	CartHandler *storefront.CartHandler

	// Product lists
	WishlistHandler *storefront.ListHandler
	CompareHandler  *storefront.ListHandler

	// Checkout (quote, submit, success page)
	CheckoutHandler *storefront.CheckoutHandler

	// Orders (history API, history page, reorder)
	OrderHandler *storefront.OrderHandler

	// Auth (login, register, me, logout)
	AuthHandler *storefront.AuthHandler

	// Middleware runs on every storefront route (session, customer).
	Middleware []echo.MiddlewareFunc

	// StrictLimit guards credential and checkout submissions. Optional.
	StrictLimit echo.MiddlewareFunc
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	HealthHandler  *storefront.HealthHandler
	MetricsHandler echo.HandlerFunc

	// StripeWebhook is set when Stripe Checkout is the provider.
	StripeWebhook *webhook.StripeHandler
}
