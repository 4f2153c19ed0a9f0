// Package billing creates hosted checkout sessions on an external commerce or
// payment platform. Providers never take payment themselves; they return a
// redirect URL where the customer completes the purchase.
package billing

import (
	"context"
	"fmt"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/money"
)

// CheckoutProvider creates checkout sessions.
// Implementations: shopify.CheckoutProvider, StripeProvider, FallbackProvider, MockProvider
type CheckoutProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// CreateCheckoutSession submits the order intent.
	//
	// Errors:
	//   - ErrNotConfigured when credentials are absent; callers fall back
	//     to the local flow
	//   - *UserError when the platform rejects customer input
	//   - anything else is a transport or server failure
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}

// SessionLine is one cart line in the order intent.
type SessionLine struct {
	VariantID string
	Title     string
	Quantity  int
	UnitPrice money.Money
}

// SessionParams is the order intent built at submission time.
type SessionParams struct {
	Lines           []SessionLine
	Email           string
	ShippingAddress address.Address
	BillingAddress  address.Address
	PaymentMethod   string
	DiscountCode    string

	Subtotal money.Money
	Discount money.Money
	Tax      money.Money
	Shipping money.Money
	Total    money.Money

	// SuccessURL and CancelURL are absolute URLs on the storefront.
	SuccessURL string
	CancelURL  string

	// Reference ties the session back to the visitor for support lookups.
	Reference string
}

// Note renders the free-text order note, e.g.
// "Payment Method: card | Discount: SAVE10".
func (p SessionParams) Note() string {
	note := fmt.Sprintf("Payment Method: %s", p.PaymentMethod)
	if p.DiscountCode != "" {
		note += fmt.Sprintf(" | Discount: %s", p.DiscountCode)
	}
	return note
}

// Session is a created checkout session.
type Session struct {
	ID    string
	URL   string
	Total money.Money
	// IsMock marks sessions synthesised locally without a platform call.
	IsMock bool
}
