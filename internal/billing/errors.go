package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned when provider credentials are absent or
	// still set to placeholder values.
	ErrNotConfigured = errors.New("billing: provider not configured")

	// ErrInvalidAPIKey is returned when Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrNoLines is returned when a session is requested for an empty order.
	ErrNoLines = errors.New("billing: at least one line item is required")
)

// FieldError is one platform validation failure.
type FieldError struct {
	Code    string
	Field   string
	Message string
}

// UserError is returned when the platform rejects customer input, e.g. an
// undeliverable address. The first message is shown to the customer verbatim.
type UserError struct {
	Errors []FieldError
}

func (e *UserError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "billing: rejected: " + strings.Join(msgs, "; ")
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *UserError) ErrorCode() string {
	return "invalid"
}

// ErrorMessage returns the first platform message.
func (e *UserError) ErrorMessage() string {
	if len(e.Errors) == 0 {
		return "Checkout was rejected"
	}
	return e.Errors[0].Message
}

// Fields maps field names to messages for form rendering.
func (e *UserError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		field := fe.Field
		if field == "" {
			field = "checkout"
		}
		if _, exists := out[field]; !exists {
			out[field] = fe.Message
		}
	}
	return out
}

// IsUserError reports whether err carries platform validation failures.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// TransportError wraps a network or non-2xx failure from a provider.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message       string // Human-readable error message
	Code          string // Stripe error code (e.g., "rate_limit")
	DeclineCode   string // Card decline reason (if applicable)
	StripeCode    string // HTTP status code from Stripe
	RequestID     string // Stripe request ID for debugging
	OriginalError error  // Original error from Stripe SDK
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// IsDeclined returns true if error is due to card decline.
func (e *StripeError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTemporary returns true if error is likely transient and retryable.
func (e *StripeError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error"
}
