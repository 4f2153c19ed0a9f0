package tax

import (
	"context"

	"github.com/dukerupert/britishfloors/internal/money"
)

// NoTaxCalculator returns zero tax for all calculations.
// Selected when TAX_RATE is 0, e.g. for export-only storefronts.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() *NoTaxCalculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero tax in the subtotal's currency.
func (c *NoTaxCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	return &TaxResult{Total: money.Zero(params.Subtotal.CurrencyCode)}, nil
}
