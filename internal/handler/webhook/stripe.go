package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/middleware"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// Confirmer completes a visitor's checkout. service.CheckoutService
// implements it; confirming twice is harmless.
type Confirmer interface {
	Confirm(ctx context.Context, sessionID, orderID string) (*domain.Confirmation, error)
}

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	checkout Confirmer
	secret   string
	logger   zerolog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(checkout Confirmer, webhookSecret string, logger zerolog.Logger) *StripeHandler {
	return &StripeHandler{
		checkout: checkout,
		secret:   webhookSecret,
		logger:   logger.With().Str("component", "stripe_webhook").Logger(),
	}
}

// Handle handles POST /webhooks/stripe
//
// A paid checkout.session.completed confirms the visitor's checkout the same
// way landing on the success page does, so the cart is cleared even when the
// customer never returns to the storefront.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
func (h *StripeHandler) Handle(c echo.Context) error {
	startTime := time.Now()
	r := c.Request()
	logger := middleware.GetLogger(r.Context(), h.logger)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Errorf(domain.ETOOLARGE, "webhook.stripe", "Request body too large")
		}
		return domain.Errorf(domain.EINVALID, "webhook.stripe", "Error reading request body")
	}

	event, err := billing.VerifyStripeWebhook(payload, r.Header.Get("Stripe-Signature"), h.secret)
	switch {
	case errors.Is(err, billing.ErrMissingSignature):
		return domain.Errorf(domain.EINVALID, "webhook.stripe", "Missing signature")
	case errors.Is(err, billing.ErrNotConfigured):
		logger.Error().Msg("stripe webhook received but STRIPE_WEBHOOK_SECRET is not set")
		return domain.Errorf(domain.EUNAVAILABLE, "webhook.stripe", "Webhooks are not configured")
	case err != nil:
		logger.Warn().Err(err).Msg("stripe webhook signature verification failed")
		return domain.Errorf(domain.EUNAUTHORIZED, "webhook.stripe", "Invalid signature")
	}

	eventType := string(event.Type)
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues("stripe", eventType).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues("stripe", eventType).Observe(time.Since(startTime).Seconds())
		}()
	}

	evtLog := logger.With().Str("event_id", event.ID).Str("event_type", eventType).Logger()

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		h.handleCheckoutCompleted(r.Context(), evtLog, event)
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		evtLog.Info().Msg("checkout session did not complete; cart left intact")
	default:
		evtLog.Debug().Msg("ignoring stripe event")
	}

	// Stripe retries anything but 2xx; processing problems are logged, not
	// bounced back.
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *StripeHandler) handleCheckoutCompleted(ctx context.Context, logger zerolog.Logger, event stripe.Event) {
	cs, err := billing.ParseCompletedCheckout(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse checkout session")
		return
	}
	logger = logger.With().Str("checkout_id", cs.SessionID).Str("payment_status", cs.PaymentStatus).Logger()

	if !cs.Paid() {
		logger.Info().Msg("checkout completed without payment; waiting for async payment")
		return
	}
	if cs.Reference == "" {
		logger.Warn().Msg("checkout session has no client reference; nothing to confirm")
		return
	}

	conf, err := h.checkout.Confirm(ctx, cs.Reference, cs.SessionID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to confirm checkout from webhook")
		telemetry.CaptureErrorWithContext(ctx, err, cs.Reference, map[string]interface{}{
			"checkout_id": cs.SessionID,
			"event_id":    event.ID,
		})
		return
	}
	logger.Info().
		Int("cleared_items", conf.ClearedItems).
		Int64("amount_total", cs.AmountTotal).
		Str("currency", cs.Currency).
		Msg("checkout confirmed by webhook")
}
