package billing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/britishfloors/internal/money"
)

func gbp(s string) money.Money { return money.MustParse(s, "GBP") }

func sampleParams() SessionParams {
	return SessionParams{
		Lines: []SessionLine{
			{VariantID: "v-a", Title: "Oak", Quantity: 2, UnitPrice: gbp("50.00")},
			{VariantID: "v-b", Title: "Underlay", Quantity: 1, UnitPrice: gbp("30.00")},
		},
		Email:         "jane@example.com",
		PaymentMethod: "card",
		DiscountCode:  "FLOORING15",
		Subtotal:      gbp("130.00"),
		Discount:      gbp("19.50"),
		Tax:           gbp("26.00"),
		Shipping:      gbp("0.00"),
		Total:         gbp("136.50"),
		SuccessURL:    "https://shop.example.com/checkout/success",
		CancelURL:     "https://shop.example.com/checkout",
		Reference:     "sess_1",
	}
}

// newTestStripeProvider builds a provider whose SDK calls are captured.
func newTestStripeProvider(t *testing.T) (*StripeProvider, *[]*stripe.CheckoutSessionParams, *[]*stripe.CouponParams) {
	t.Helper()
	p, err := NewStripeProvider(StripeConfig{APIKey: "sk_test_123"})
	require.NoError(t, err)

	var sessions []*stripe.CheckoutSessionParams
	var coupons []*stripe.CouponParams
	p.newSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		sessions = append(sessions, params)
		return &stripe.CheckoutSession{
			ID:          "cs_test_1",
			URL:         "https://checkout.stripe.com/c/pay/cs_test_1",
			AmountTotal: 13650,
			Currency:    stripe.CurrencyGBP,
		}, nil
	}
	p.newCoupon = func(params *stripe.CouponParams) (*stripe.Coupon, error) {
		coupons = append(coupons, params)
		return &stripe.Coupon{ID: "co_test_1"}, nil
	}
	return p, &sessions, &coupons
}

func TestStripeProvider_CreateCheckoutSession(t *testing.T) {
	p, sessions, coupons := newTestStripeProvider(t)

	s, err := p.CreateCheckoutSession(context.Background(), sampleParams())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)
	assert.Equal(t, "136.50", s.Total.String())
	assert.Equal(t, "GBP", s.Total.CurrencyCode)
	assert.False(t, s.IsMock)

	require.Len(t, *sessions, 1)
	params := (*sessions)[0]
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "jane@example.com", *params.CustomerEmail)
	assert.Equal(t, "sess_1", *params.ClientReferenceID)
	assert.Equal(t, "Payment Method: card | Discount: FLOORING15", params.Metadata["note"])

	// two cart lines plus VAT; free delivery adds no line
	require.Len(t, params.LineItems, 3)
	assert.Equal(t, int64(5000), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
	assert.Equal(t, "gbp", *params.LineItems[0].PriceData.Currency)
	assert.Equal(t, "v-a", params.LineItems[0].PriceData.ProductData.Metadata["variant_id"])
	assert.Equal(t, "VAT", *params.LineItems[2].PriceData.ProductData.Name)
	assert.Equal(t, int64(2600), *params.LineItems[2].PriceData.UnitAmount)

	require.Len(t, *coupons, 1)
	assert.Equal(t, int64(1950), *(*coupons)[0].AmountOff)
	assert.Equal(t, int64(1), *(*coupons)[0].MaxRedemptions)
	require.Len(t, params.Discounts, 1)
	assert.Equal(t, "co_test_1", *params.Discounts[0].Coupon)
}

func TestStripeProvider_DeliveryLineAndNoDiscount(t *testing.T) {
	p, sessions, coupons := newTestStripeProvider(t)

	params := sampleParams()
	params.DiscountCode = ""
	params.Discount = gbp("0")
	params.Shipping = gbp("10.00")

	_, err := p.CreateCheckoutSession(context.Background(), params)
	require.NoError(t, err)

	assert.Empty(t, *coupons)
	got := (*sessions)[0]
	assert.Empty(t, got.Discounts)
	require.Len(t, got.LineItems, 4)
	assert.Equal(t, "Delivery", *got.LineItems[3].PriceData.ProductData.Name)
	assert.Equal(t, "Payment Method: card", got.Metadata["note"])
}

func TestStripeProvider_RejectsEmptyOrder(t *testing.T) {
	p, sessions, _ := newTestStripeProvider(t)

	_, err := p.CreateCheckoutSession(context.Background(), SessionParams{})
	assert.ErrorIs(t, err, ErrNoLines)
	assert.Empty(t, *sessions)
}

func TestStripeProvider_MapsErrors(t *testing.T) {
	t.Run("invalid request becomes user error", func(t *testing.T) {
		p, _, _ := newTestStripeProvider(t)
		p.newSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return nil, &stripe.Error{
				Type:           stripe.ErrorTypeInvalidRequest,
				HTTPStatusCode: http.StatusBadRequest,
				Param:          "customer_email",
				Msg:            "Invalid email address: jane@",
			}
		}

		_, err := p.CreateCheckoutSession(context.Background(), sampleParams())
		var ue *UserError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "Invalid email address: jane@", ue.ErrorMessage())
		assert.Equal(t, map[string]string{"customer_email": "Invalid email address: jane@"}, ue.Fields())
	})

	t.Run("server error becomes transport error", func(t *testing.T) {
		p, _, _ := newTestStripeProvider(t)
		p.newSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return nil, &stripe.Error{
				Type:           stripe.ErrorTypeAPI,
				HTTPStatusCode: http.StatusInternalServerError,
				Msg:            "boom",
				RequestID:      "req_1",
			}
		}

		_, err := p.CreateCheckoutSession(context.Background(), sampleParams())
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
		assert.False(t, IsUserError(err))

		var se *StripeError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "req_1", se.RequestID)
	})

	t.Run("coupon failure aborts session", func(t *testing.T) {
		p, sessions, _ := newTestStripeProvider(t)
		p.newCoupon = func(*stripe.CouponParams) (*stripe.Coupon, error) {
			return nil, errors.New("connection reset")
		}

		_, err := p.CreateCheckoutSession(context.Background(), sampleParams())
		var te *TransportError
		assert.True(t, errors.As(err, &te))
		assert.Empty(t, *sessions)
	})
}

func TestNewStripeProvider_NotConfigured(t *testing.T) {
	_, err := NewStripeProvider(StripeConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewStripeProvider(StripeConfig{APIKey: "pk_test_123"})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestStripeConfig_Validation(t *testing.T) {
	t.Run("validates required API key", func(t *testing.T) {
		config := StripeConfig{APIKey: ""}
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("accepts configuration without webhook secret", func(t *testing.T) {
		config := StripeConfig{APIKey: "sk_test_123"}
		assert.NoError(t, config.Validate())
	})

	t.Run("detects test mode correctly", func(t *testing.T) {
		testConfig := StripeConfig{APIKey: "sk_test_123456"}
		assert.True(t, testConfig.IsTestMode())

		liveConfig := StripeConfig{APIKey: "sk_live_123456"}
		assert.False(t, liveConfig.IsTestMode())
	})
}

// TestStripeError tests the StripeError type
func TestStripeError(t *testing.T) {
	t.Run("formats error message correctly", func(t *testing.T) {
		err := &StripeError{
			Message: "Payment failed",
			Code:    "card_declined",
		}
		assert.Contains(t, err.Error(), "Payment failed")
		assert.Contains(t, err.Error(), "card_declined")
	})

	t.Run("identifies declined cards", func(t *testing.T) {
		err := &StripeError{
			Code:        "card_declined",
			DeclineCode: "insufficient_funds",
		}
		assert.True(t, err.IsDeclined())

		notDeclined := &StripeError{Code: "api_error"}
		assert.False(t, notDeclined.IsDeclined())
	})

	t.Run("identifies temporary errors", func(t *testing.T) {
		assert.True(t, (&StripeError{Code: "rate_limit"}).IsTemporary())
		assert.True(t, (&StripeError{Code: "api_connection_error"}).IsTemporary())
		assert.False(t, (&StripeError{Code: "invalid_request"}).IsTemporary())
	})
}
