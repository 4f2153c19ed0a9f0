package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	// ErrMissingSignature is returned when the Stripe-Signature header is absent.
	ErrMissingSignature = errors.New("billing: missing webhook signature")

	// ErrInvalidSignature is returned when the payload does not match the
	// signature or the timestamp is outside the tolerance window.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
)

// CompletedCheckout is the part of a completed Checkout Session the storefront
// acts on.
type CompletedCheckout struct {
	SessionID     string
	Reference     string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
}

// Paid reports whether the customer has paid or owed nothing.
func (c CompletedCheckout) Paid() bool {
	return c.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
		c.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)
}

// VerifyStripeWebhook checks the signature header against secret and decodes
// the event. API version mismatches are tolerated because only a few stable
// fields are read.
func VerifyStripeWebhook(payload []byte, signature, secret string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	if secret == "" {
		return stripe.Event{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// ParseCompletedCheckout decodes the session carried by a
// checkout.session.completed event.
func ParseCompletedCheckout(event stripe.Event) (CompletedCheckout, error) {
	if event.Data == nil {
		return CompletedCheckout{}, errors.New("billing: event has no data")
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return CompletedCheckout{}, fmt.Errorf("billing: decode checkout session: %w", err)
	}
	return CompletedCheckout{
		SessionID:     cs.ID,
		Reference:     cs.ClientReferenceID,
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
	}, nil
}
