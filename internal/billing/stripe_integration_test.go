//go:build integration
// +build integration

package billing

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadTestConfig loads Stripe test credentials from .env.test
func loadTestConfig(t *testing.T) StripeConfig {
	t.Helper()

	// Load .env.test from project root
	err := godotenv.Load("../../.env.test")
	if err != nil {
		t.Skipf("Skipping integration test: .env.test not found (%v)", err)
	}

	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	if apiKey == "" || apiKey == "sk_test_your_key_here" {
		t.Skip("Skipping integration test: STRIPE_SECRET_KEY not set in .env.test")
	}

	config := StripeConfig{APIKey: apiKey, Currency: "gbp"}

	// Verify it's a test key, not a live key
	if !config.IsTestMode() {
		t.Fatal("DANGER: Live Stripe key detected! Integration tests must use test mode keys (sk_test_...)")
	}

	return config
}

func TestStripeIntegration_CreateCheckoutSession(t *testing.T) {
	provider, err := NewStripeProvider(loadTestConfig(t))
	require.NoError(t, err, "Failed to create Stripe provider")

	s, err := provider.CreateCheckoutSession(context.Background(), sampleParams())
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Contains(t, s.URL, "checkout.stripe.com")
	assert.Equal(t, "136.50", s.Total.String())
}

func TestStripeIntegration_RejectsBadEmail(t *testing.T) {
	provider, err := NewStripeProvider(loadTestConfig(t))
	require.NoError(t, err)

	params := sampleParams()
	params.Email = "not-an-email"

	_, err = provider.CreateCheckoutSession(context.Background(), params)
	require.Error(t, err)
	assert.True(t, IsUserError(err), "expected user error, got %v", err)
}
