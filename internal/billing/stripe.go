package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/coupon"

	"github.com/dukerupert/britishfloors/internal/money"
)

// StripeProvider implements CheckoutProvider using Stripe Checkout.
//
// Stripe receives the totals the storefront has already computed: each cart
// line becomes a price_data line item, VAT and delivery become their own
// lines, and a discount is applied through a single-use amount-off coupon.
type StripeProvider struct {
	config StripeConfig

	// SDK entry points, replaced in tests.
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	newCoupon  func(*stripe.CouponParams) (*stripe.Coupon, error)
}

// NewStripeProvider creates a new Stripe checkout provider.
// Returns ErrNotConfigured when the API key is empty.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Currency == "" {
		config.Currency = "gbp"
	}
	config.Currency = strings.ToLower(config.Currency)

	stripe.Key = config.APIKey

	return &StripeProvider{
		config:     config,
		newSession: checkoutsession.New,
		newCoupon:  coupon.New,
	}, nil
}

func (s *StripeProvider) Name() string { return "stripe" }

// CreateCheckoutSession creates a Checkout Session in payment mode.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	if len(p.Lines) == 0 {
		return nil, ErrNoLines
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
		CustomerEmail: stripe.String(p.Email),
	}
	params.Context = ctx
	if p.Reference != "" {
		params.ClientReferenceID = stripe.String(p.Reference)
		params.AddMetadata("reference", p.Reference)
	}
	params.AddMetadata("note", p.Note())
	params.AddMetadata("payment_method", p.PaymentMethod)

	for _, line := range p.Lines {
		params.LineItems = append(params.LineItems, s.lineItem(line.Title, line.UnitPrice, int64(line.Quantity), map[string]string{
			"variant_id": line.VariantID,
		}))
	}
	if !p.Tax.IsZero() {
		params.LineItems = append(params.LineItems, s.lineItem("VAT", p.Tax, 1, nil))
	}
	if !p.Shipping.IsZero() {
		params.LineItems = append(params.LineItems, s.lineItem("Delivery", p.Shipping, 1, nil))
	}

	if p.DiscountCode != "" && !p.Discount.IsZero() {
		c, err := s.discountCoupon(ctx, p.DiscountCode, p.Discount)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(c.ID)},
		}
	}

	cs, err := s.newSession(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	total := p.Total
	if cs.AmountTotal > 0 {
		total = money.FromMinorUnits(cs.AmountTotal, string(cs.Currency))
	}
	return &Session{
		ID:    cs.ID,
		URL:   cs.URL,
		Total: total,
	}, nil
}

func (s *StripeProvider) lineItem(name string, unit money.Money, qty int64, metadata map[string]string) *stripe.CheckoutSessionLineItemParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(name),
	}
	if len(metadata) > 0 {
		product.Metadata = metadata
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(s.currencyFor(unit)),
			UnitAmount:  stripe.Int64(unit.MinorUnits()),
			ProductData: product,
		},
		Quantity: stripe.Int64(qty),
	}
}

// discountCoupon creates a single-use coupon worth exactly the discount the
// storefront computed, so Stripe's total matches ours.
func (s *StripeProvider) discountCoupon(ctx context.Context, code string, amount money.Money) (*stripe.Coupon, error) {
	params := &stripe.CouponParams{
		AmountOff:      stripe.Int64(amount.MinorUnits()),
		Currency:       stripe.String(s.currencyFor(amount)),
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		Name:           stripe.String(code),
		MaxRedemptions: stripe.Int64(1),
	}
	params.Context = ctx

	c, err := s.newCoupon(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return c, nil
}

func (s *StripeProvider) currencyFor(m money.Money) string {
	if m.CurrencyCode != "" {
		return strings.ToLower(m.CurrencyCode)
	}
	return s.config.Currency
}

// mapStripeError converts SDK errors. Invalid request errors carry a
// parameter name and a customer-facing message; everything else is treated
// as a platform failure.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &TransportError{Provider: "stripe", Err: err}
	}

	if stripeErr.Type == stripe.ErrorTypeInvalidRequest && stripeErr.HTTPStatusCode == http.StatusBadRequest {
		return &UserError{Errors: []FieldError{{
			Code:    string(stripeErr.Code),
			Field:   stripeErr.Param,
			Message: stripeErr.Msg,
		}}}
	}

	return &TransportError{
		Provider:   "stripe",
		StatusCode: stripeErr.HTTPStatusCode,
		Err: &StripeError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			DeclineCode:   string(stripeErr.DeclineCode),
			StripeCode:    fmt.Sprintf("%d", stripeErr.HTTPStatusCode),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		},
	}
}
