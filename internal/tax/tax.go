package tax

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/money"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator, MockCalculator
type Calculator interface {
	// CalculateTax computes tax on the goods subtotal. Neither shipping nor
	// promotional discounts change the taxable base.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	ShippingAddress address.Address
	LineItems       []LineItem
	Subtotal        money.Money
}

// LineItem represents a single item being taxed.
type LineItem struct {
	VariantID   string
	Description string
	Quantity    int
	UnitPrice   money.Money
	TotalPrice  money.Money
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	Total      money.Money
	Breakdown  []TaxBreakdown
	IsEstimate bool
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Jurisdiction string          // "country"
	Name         string          // e.g. "VAT"
	Rate         decimal.Decimal // e.g. 0.20 for 20%
	Amount       money.Money
}
