// Package domain provides core storefront types, errors and context helpers.
//
// Context helpers centralize request-scoped data access so handlers and
// services agree on where the visitor session and request ID live.
package domain

import (
	"context"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// sessionContextKey stores the visitor session ID.
	sessionContextKey contextKey = iota

	// customerContextKey stores the logged-in customer, if any.
	customerContextKey

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// --- Session Context Helpers ---

// NewContextWithSessionID returns a new context carrying the visitor session ID.
func NewContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionID)
}

// SessionIDFromContext retrieves the visitor session ID.
// Returns empty string if none is present.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}

// RequireSessionID retrieves the session ID or panics.
// Use only behind the session middleware.
func RequireSessionID(ctx context.Context) string {
	id := SessionIDFromContext(ctx)
	if id == "" {
		panic("session ID required in context but not found")
	}
	return id
}

// --- Customer Context Helpers ---

// NewContextWithCustomer returns a new context with the customer attached.
func NewContextWithCustomer(ctx context.Context, customer *Customer) context.Context {
	return context.WithValue(ctx, customerContextKey, customer)
}

// CustomerFromContext retrieves the customer from context.
// Returns nil for guests.
func CustomerFromContext(ctx context.Context) *Customer {
	customer, _ := ctx.Value(customerContextKey).(*Customer)
	return customer
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// IsAuthenticated returns true if there is a customer in context.
func IsAuthenticated(ctx context.Context) bool {
	return CustomerFromContext(ctx) != nil
}
