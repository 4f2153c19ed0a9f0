package domain

import (
	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/money"
)

// Checkout-related domain errors.
var (
	ErrCheckoutInFlight      = &Error{Code: ECONFLICT, Message: "A checkout is already being processed for this cart"}
	ErrMissingEmail          = &Error{Code: EINVALID, Message: "Email address is required"}
	ErrInvalidPaymentMethod  = &Error{Code: EINVALID, Message: "Unsupported payment method"}
	ErrCheckoutProviderError = &Error{Code: EUNAVAILABLE, Message: "Failed to create checkout. Please try again."}
)

// PaymentMethod is an informational tag recorded on the checkout note.
// No payment is taken by this service.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodPayPal   PaymentMethod = "paypal"
	PaymentMethodApplePay PaymentMethod = "apple-pay"
)

// Valid reports whether the tag is one the storefront offers.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodApplePay:
		return true
	}
	return false
}

// CheckoutRequest is the form submitted on the checkout page.
type CheckoutRequest struct {
	Email           string           `json:"email"`
	ShippingAddress address.Address  `json:"shippingAddress"`
	BillingAddress  *address.Address `json:"billingAddress,omitempty"`
	SameAsShipping  bool             `json:"sameAsShipping"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod"`
}

// ResolvedBilling returns the shipping address when SameAsShipping is set or
// no billing address was supplied.
func (r CheckoutRequest) ResolvedBilling() address.Address {
	if r.SameAsShipping || r.BillingAddress == nil || r.BillingAddress.IsZero() {
		return r.ShippingAddress
	}
	return *r.BillingAddress
}

// OrderTotal is the authoritative breakdown computed at submission time.
type OrderTotal struct {
	Subtotal money.Money `json:"subtotal"`
	Discount money.Money `json:"discount"`
	Tax      money.Money `json:"tax"`
	Shipping money.Money `json:"shipping"`
	Total    money.Money `json:"total"`
}

// CheckoutResult tells the client where to go next.
type CheckoutResult struct {
	CheckoutURL string      `json:"checkoutUrl"`
	CheckoutID  string      `json:"checkoutId"`
	Total       money.Money `json:"total"`
	Breakdown   OrderTotal  `json:"breakdown"`
	IsMock      bool        `json:"isMock"`
}

// Confirmation is returned when the customer lands on the success page.
type Confirmation struct {
	OrderID      string `json:"orderId"`
	ClearedItems int    `json:"clearedItems"`
	IsMock       bool   `json:"isMock"`
	// Total is the breakdown recorded at submission, when this process saw it.
	Total *OrderTotal `json:"total,omitempty"`
}
