package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/handler"
)

const testSecret = "whsec_test_secret"

type confirmCall struct {
	sessionID string
	orderID   string
}

type fakeConfirmer struct {
	calls []confirmCall
	err   error
}

func (f *fakeConfirmer) Confirm(ctx context.Context, sessionID, orderID string) (*domain.Confirmation, error) {
	f.calls = append(f.calls, confirmCall{sessionID, orderID})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Confirmation{OrderID: orderID, ClearedItems: 2}, nil
}

// sign builds a Stripe-Signature header the way Stripe does.
func sign(payload string, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(eventType, paymentStatus, reference string) string {
	return fmt.Sprintf(`{
  "id": "evt_test_1",
  "object": "event",
  "api_version": "2020-08-27",
  "type": %q,
  "data": {
    "object": {
      "id": "cs_test_123",
      "object": "checkout.session",
      "client_reference_id": %q,
      "payment_status": %q,
      "amount_total": 17999,
      "currency": "gbp"
    }
  }
}`, eventType, reference, paymentStatus)
}

func serve(t *testing.T, h *StripeHandler, payload, signature string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(zerolog.Nop())
	e.POST("/webhooks/stripe", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStripeHandler_Security(t *testing.T) {
	payload := checkoutEvent("checkout.session.completed", "paid", "visitor-1")

	tests := []struct {
		name      string
		secret    string
		signature string
		status    int
	}{
		{name: "missing signature", secret: testSecret, status: http.StatusBadRequest},
		{name: "wrong secret", secret: testSecret, signature: sign(payload, "whsec_other", time.Now()), status: http.StatusUnauthorized},
		{name: "stale timestamp", secret: testSecret, signature: sign(payload, testSecret, time.Now().Add(-time.Hour)), status: http.StatusUnauthorized},
		{name: "secret not configured", signature: sign(payload, testSecret, time.Now()), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &fakeConfirmer{}
			rec := serve(t, NewStripeHandler(confirmer, tt.secret, zerolog.Nop()), payload, tt.signature)

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, confirmer.calls)
		})
	}
}

func TestStripeHandler_CheckoutCompletedConfirms(t *testing.T) {
	confirmer := &fakeConfirmer{}
	payload := checkoutEvent("checkout.session.completed", "paid", "visitor-1")

	rec := serve(t, NewStripeHandler(confirmer, testSecret, zerolog.Nop()), payload, sign(payload, testSecret, time.Now()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Len(t, confirmer.calls, 1)
	assert.Equal(t, confirmCall{sessionID: "visitor-1", orderID: "cs_test_123"}, confirmer.calls[0])
}

func TestStripeHandler_SkipsUnpaidAndUnreferenced(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"unpaid", checkoutEvent("checkout.session.completed", "unpaid", "visitor-1")},
		{"no reference", checkoutEvent("checkout.session.completed", "paid", "")},
		{"expired", checkoutEvent("checkout.session.expired", "unpaid", "visitor-1")},
		{"unrelated event", checkoutEvent("payment_intent.created", "paid", "visitor-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &fakeConfirmer{}
			rec := serve(t, NewStripeHandler(confirmer, testSecret, zerolog.Nop()), tt.payload, sign(tt.payload, testSecret, time.Now()))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, confirmer.calls)
		})
	}
}

func TestStripeHandler_ConfirmFailureStillAcknowledges(t *testing.T) {
	confirmer := &fakeConfirmer{err: errors.New("state store down")}
	payload := checkoutEvent("checkout.session.async_payment_succeeded", "paid", "visitor-1")

	rec := serve(t, NewStripeHandler(confirmer, testSecret, zerolog.Nop()), payload, sign(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, confirmer.calls, 1)
}
