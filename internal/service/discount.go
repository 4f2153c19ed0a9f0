package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountTable maps upper-case promotion codes to fractional rates.
type DiscountTable map[string]decimal.Decimal

// DefaultDiscounts returns the promotion codes the storefront accepts.
func DefaultDiscounts() DiscountTable {
	return DiscountTable{
		"SAVE10":     decimal.RequireFromString("0.10"),
		"WELCOME20":  decimal.RequireFromString("0.20"),
		"FLOORING15": decimal.RequireFromString("0.15"),
	}
}

// Lookup matches a code case-insensitively and returns the canonical code
// with its rate.
func (t DiscountTable) Lookup(code string) (string, decimal.Decimal, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	rate, ok := t[normalized]
	return normalized, rate, ok
}
