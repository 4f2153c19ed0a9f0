package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/domain"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize covers every storefront JSON payload.
	DefaultMaxBodySize = 1 * MB
)

// DefaultTimeout bounds a request that does not set its own deadline.
const DefaultTimeout = 30 * time.Second

// MaxBodySize limits the size of request bodies.
// If the request body exceeds maxBytes, it returns 413 Request Entity Too Large.
func MaxBodySize(maxBytes int64) echo.MiddlewareFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.Body != nil && r.ContentLength > maxBytes {
				return domain.Errorf(domain.ETOOLARGE, "middleware.body", "Request body too large")
			}
			r.Body = http.MaxBytesReader(c.Response(), r.Body, maxBytes)
			return next(c)
		}
	}
}

// Timeout attaches a deadline to the request context. Collaborator calls
// made with that context fail once it expires.
func Timeout(d time.Duration) echo.MiddlewareFunc {
	if d <= 0 {
		d = DefaultTimeout
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
