package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// UKVATRate is the standard rate applied to flooring goods.
var UKVATRate = decimal.RequireFromString("0.20")

// PercentageCalculator applies a single flat rate to the goods subtotal.
type PercentageCalculator struct {
	rate decimal.Decimal
	name string
}

// NewPercentageCalculator creates a calculator for the given fractional rate.
func NewPercentageCalculator(rate decimal.Decimal, name string) (*PercentageCalculator, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}
	if name == "" {
		name = "VAT"
	}
	return &PercentageCalculator{rate: rate, name: name}, nil
}

// CalculateTax returns round2(subtotal * rate).
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	if params.Subtotal.CurrencyCode == "" {
		return nil, ErrSubtotalRequired
	}
	if params.Subtotal.IsNegative() {
		return nil, ErrNegativeSubtotal
	}

	amount := params.Subtotal.Percent(c.rate)
	return &TaxResult{
		Total: amount,
		Breakdown: []TaxBreakdown{{
			Jurisdiction: "country",
			Name:         c.name,
			Rate:         c.rate,
			Amount:       amount,
		}},
	}, nil
}
