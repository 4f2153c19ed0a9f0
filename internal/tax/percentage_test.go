package tax_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/money"
	"github.com/dukerupert/britishfloors/internal/tax"
)

func gbp(s string) money.Money { return money.MustParse(s, "GBP") }

func Test_PercentageCalculator_VATOnSubtotal(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(tax.UKVATRate, "VAT")
	require.NoError(t, err)

	result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
		Subtotal: gbp("100.00"),
	})

	require.NoError(t, err)
	assert.Equal(t, "20.00", result.Total.String(), "100 * 0.20")
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "VAT", result.Breakdown[0].Name)
	assert.True(t, result.Breakdown[0].Rate.Equal(decimal.RequireFromString("0.2")))
	assert.False(t, result.IsEstimate)
}

func Test_PercentageCalculator_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		want     string
	}{
		{"below free delivery threshold", "80.00", "16.00"},
		{"half penny rounds up", "0.03", "0.01"},
		{"odd pence", "149.99", "30.00"},
		{"empty cart", "0", "0.00"},
	}

	calc, err := tax.NewPercentageCalculator(tax.UKVATRate, "")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{Subtotal: gbp(tt.subtotal)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Total.String())
		})
	}
}

func Test_PercentageCalculator_InvalidRate(t *testing.T) {
	_, err := tax.NewPercentageCalculator(decimal.RequireFromString("1.5"), "VAT")
	assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)

	_, err = tax.NewPercentageCalculator(decimal.RequireFromString("-0.1"), "VAT")
	assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
}

func Test_PercentageCalculator_InvalidSubtotal(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(tax.UKVATRate, "VAT")
	require.NoError(t, err)

	_, err = calc.CalculateTax(context.Background(), tax.TaxParams{})
	assert.ErrorIs(t, err, tax.ErrSubtotalRequired)

	_, err = calc.CalculateTax(context.Background(), tax.TaxParams{Subtotal: gbp("-1.00")})
	assert.ErrorIs(t, err, tax.ErrNegativeSubtotal)
}

func TestNoTaxCalculator_ReturnsZero(t *testing.T) {
	result, err := tax.NewNoTaxCalculator().CalculateTax(context.Background(), tax.TaxParams{Subtotal: gbp("250.00")})
	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, "GBP", result.Total.CurrencyCode)
}
