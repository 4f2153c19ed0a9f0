package domain

import (
	"context"
	"testing"
)

func TestSessionContext(t *testing.T) {
	t.Run("SessionIDFromContext returns empty when unset", func(t *testing.T) {
		if id := SessionIDFromContext(context.Background()); id != "" {
			t.Errorf("expected empty session ID, got %q", id)
		}
	})

	t.Run("SessionIDFromContext returns ID when set", func(t *testing.T) {
		ctx := NewContextWithSessionID(context.Background(), "sess-123")
		if id := SessionIDFromContext(ctx); id != "sess-123" {
			t.Errorf("expected sess-123, got %q", id)
		}
		if id := RequireSessionID(ctx); id != "sess-123" {
			t.Errorf("RequireSessionID = %q", id)
		}
	})

	t.Run("RequireSessionID panics when unset", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic")
			}
		}()
		RequireSessionID(context.Background())
	})
}

func TestCustomerContext(t *testing.T) {
	ctx := context.Background()
	if IsAuthenticated(ctx) {
		t.Error("guest context should not be authenticated")
	}

	ctx = NewContextWithCustomer(ctx, &Customer{ID: "gid://shopify/Customer/1", Email: "john@example.com"})
	customer := CustomerFromContext(ctx)
	if customer == nil || customer.Email != "john@example.com" {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if !IsAuthenticated(ctx) {
		t.Error("expected authenticated context")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := NewContextWithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
}

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		raw         string
		label       string
		reorderable bool
	}{
		{"delivered", "Delivered", true},
		{"PROCESSING", "Processing", false},
		{"shipped", "Shipped", false},
		{"cancelled", "Cancelled", false},
		{"placed", "Placed", false},
		{"refunded", "Unknown", false},
		{"", "Unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s := ParseOrderStatus(tt.raw)
			if s.Label() != tt.label {
				t.Errorf("Label() = %q, want %q", s.Label(), tt.label)
			}
			if s.Reorderable() != tt.reorderable {
				t.Errorf("Reorderable() = %v, want %v", s.Reorderable(), tt.reorderable)
			}
		})
	}
}

func TestOrderFilter_Normalize(t *testing.T) {
	f := OrderFilter{Status: " All "}.Normalize()
	if f.Page != 1 || f.Limit != 10 || f.Status != "" {
		t.Errorf("unexpected defaults %+v", f)
	}

	f = OrderFilter{Page: 3, Limit: 2, Status: "Delivered"}.Normalize()
	if f.Page != 3 || f.Limit != 2 || f.Status != "delivered" {
		t.Errorf("unexpected normalized filter %+v", f)
	}
}

func TestCheckoutRequest_ResolvedBilling(t *testing.T) {
	req := CheckoutRequest{SameAsShipping: true}
	req.ShippingAddress.City = "London"
	if req.ResolvedBilling().City != "London" {
		t.Error("same-as-shipping should reuse shipping address")
	}

	req.SameAsShipping = false
	req.BillingAddress = &req.ShippingAddress
	billing := *req.BillingAddress
	billing.City = "Leeds"
	req.BillingAddress = &billing
	if req.ResolvedBilling().City != "Leeds" {
		t.Error("explicit billing address should be used")
	}
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, pm := range []PaymentMethod{PaymentMethodCard, PaymentMethodPayPal, PaymentMethodApplePay} {
		if !pm.Valid() {
			t.Errorf("%q should be valid", pm)
		}
	}
	if PaymentMethod("bitcoin").Valid() {
		t.Error("bitcoin should be invalid")
	}
}
