package shipping

import (
	"context"

	"github.com/dukerupert/britishfloors/internal/money"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	GetRatesFunc func(ctx context.Context, params RateParams) ([]Rate, error)
	Calls        []RateParams
}

// NewMockProvider creates a mock that quotes free delivery.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// GetRates delegates to the configured function or returns one free rate.
func (m *MockProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	m.Calls = append(m.Calls, params)
	if m.GetRatesFunc != nil {
		return m.GetRatesFunc(ctx, params)
	}
	return []Rate{{
		RateID:      "MOCK",
		Carrier:     "Mock",
		ServiceName: "Mock Delivery",
		ServiceCode: "MOCK",
		Cost:        money.Zero(params.Subtotal.CurrencyCode),
	}}, nil
}
