package service

import (
	"github.com/shopspring/decimal"

	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
)

// CartStore is the operation set of a visitor's cart. Every mutation leaves
// the cached totals equal to a fresh CalculateTotals over the new items.
type CartStore interface {
	AddItem(product catalog.Product, variant catalog.Variant, quantity int) error
	RemoveItem(variantID string)
	UpdateQuantity(variantID string, quantity int)
	Clear()
	ApplyDiscount(code string) error
	RemoveDiscount()
	CalculateTotals() domain.CartTotals
	State() domain.CartState
}

// Cart holds line items plus an optional percentage discount.
//
// The discount is stored as a rate and the amount is re-derived on every
// recalculation, so adding items after applying a code keeps the discount in
// step with the subtotal. Cart is not safe for concurrent use; the session
// registry serialises access per visitor.
type Cart struct {
	currency     string
	discounts    DiscountTable
	items        []domain.LineItem
	discountCode string
	discountRate decimal.Decimal
	totals       domain.CartTotals
}

var _ CartStore = (*Cart)(nil)

// NewCart returns an empty cart whose totals are denominated in currency
// until the first item arrives.
func NewCart(currency string, discounts DiscountTable) *Cart {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if discounts == nil {
		discounts = DefaultDiscounts()
	}
	c := &Cart{currency: currency, discounts: discounts}
	c.recalculate()
	return c
}

// RestoreCart rebuilds a cart from a persisted snapshot. Lines with a
// non-positive quantity are dropped and totals are recomputed.
func RestoreCart(currency string, discounts DiscountTable, snap domain.CartSnapshot) *Cart {
	c := NewCart(currency, discounts)
	for _, item := range snap.Items {
		if item.Quantity < 1 || item.VariantID == "" {
			continue
		}
		if len(c.items) > 0 && item.Price.CurrencyCode != c.items[0].Price.CurrencyCode {
			continue
		}
		if i := c.indexOf(item.VariantID); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	c.recalculate()
	return c
}

// AddItem adds quantity units of a variant, merging with an existing line for
// the same variant.
func (c *Cart) AddItem(product catalog.Product, variant catalog.Variant, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if variant.ID == "" {
		return domain.ErrVariantNotFound
	}
	if len(c.items) > 0 && variant.Price.CurrencyCode != c.items[0].Price.CurrencyCode {
		return domain.ErrCurrencyMismatch
	}

	if i := c.indexOf(variant.ID); i >= 0 {
		c.items[i].Quantity += quantity
		c.recalculate()
		return nil
	}

	item := domain.LineItem{
		ID:               domain.LineItemID(product.ID, variant.ID),
		ProductID:        product.ID,
		ProductHandle:    product.Handle,
		VariantID:        variant.ID,
		Title:            product.Title,
		VariantTitle:     variant.Title,
		Price:            variant.Price,
		Quantity:         quantity,
		AvailableForSale: variant.AvailableForSale,
	}
	switch {
	case variant.Image != nil:
		item.ImageURL = variant.Image.URL
	case product.FeaturedImage() != nil:
		item.ImageURL = product.FeaturedImage().URL
	}
	c.items = append(c.items, item)
	c.recalculate()
	return nil
}

// RemoveItem deletes the line for variantID. Missing variants are ignored.
func (c *Cart) RemoveItem(variantID string) {
	i := c.indexOf(variantID)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.recalculate()
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line;
// variants not in the cart are ignored.
func (c *Cart) UpdateQuantity(variantID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(variantID)
		return
	}
	i := c.indexOf(variantID)
	if i < 0 {
		return
	}
	c.items[i].Quantity = quantity
	c.recalculate()
}

// Contains reports whether the cart has a line for variantID.
func (c *Cart) Contains(variantID string) bool {
	return c.indexOf(variantID) >= 0
}

// Clear empties the cart and drops any discount.
func (c *Cart) Clear() {
	c.items = nil
	c.discountCode = ""
	c.discountRate = decimal.Zero
	c.recalculate()
}

// ApplyDiscount looks up a code case-insensitively. Unknown codes leave the
// cart untouched.
func (c *Cart) ApplyDiscount(code string) error {
	normalized, rate, ok := c.discounts.Lookup(code)
	if !ok {
		return domain.ErrUnknownDiscountCode
	}
	c.discountCode = normalized
	c.discountRate = rate
	c.recalculate()
	return nil
}

func (c *Cart) RemoveDiscount() {
	c.discountCode = ""
	c.discountRate = decimal.Zero
	c.recalculate()
}

// CalculateTotals derives totals from the current items and discount
// without touching the cache.
func (c *Cart) CalculateTotals() domain.CartTotals {
	currency := c.currency
	if len(c.items) > 0 {
		currency = c.items[0].Price.CurrencyCode
	}

	sum := decimal.Zero
	qty := 0
	for _, item := range c.items {
		sum = sum.Add(item.LineTotal().Amount)
		qty += item.Quantity
	}
	subtotal := money.New(sum.Round(2), currency)

	discount := money.Zero(currency)
	if c.discountCode != "" {
		discount = subtotal.Percent(c.discountRate)
	}

	total, err := subtotal.Sub(discount)
	if err != nil {
		total = subtotal
	}

	return domain.CartTotals{
		TotalQuantity:  qty,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          total.FloorAtZero(),
	}
}

// Totals returns the cached totals.
func (c *Cart) Totals() domain.CartTotals {
	return c.totals
}

// Items returns a copy of the line items.
func (c *Cart) Items() []domain.LineItem {
	return append([]domain.LineItem(nil), c.items...)
}

func (c *Cart) DiscountCode() string {
	return c.discountCode
}

// DiscountRate returns the fractional rate of the applied code, or zero.
func (c *Cart) DiscountRate() decimal.Decimal {
	return c.discountRate
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// State returns the client-facing read model.
func (c *Cart) State() domain.CartState {
	items := c.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return domain.CartState{
		Items:        items,
		DiscountCode: c.discountCode,
		CartTotals:   c.totals,
	}
}

// Snapshot returns the persisted form: items only.
func (c *Cart) Snapshot() domain.CartSnapshot {
	return domain.CartSnapshot{Items: c.Items()}
}

func (c *Cart) recalculate() {
	c.totals = c.CalculateTotals()
}

func (c *Cart) indexOf(variantID string) int {
	for i, item := range c.items {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}
