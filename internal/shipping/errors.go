package shipping

// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.
const (
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable"
)

// ShippingError represents a shipping-specific error with a code and message.
type ShippingError struct {
	Code    string
	Message string
}

func (e *ShippingError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ShippingError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *ShippingError) ErrorMessage() string {
	return e.Message
}

func newShippingError(code, message string) *ShippingError {
	return &ShippingError{Code: code, Message: message}
}

var (
	// ErrNoRates is returned when no delivery option matches the order.
	ErrNoRates = newShippingError(codeUnavailable, "No delivery options available")

	// ErrSubtotalRequired is returned when the order value is missing.
	ErrSubtotalRequired = newShippingError(codeInvalid, "Order subtotal is required to quote delivery")
)
