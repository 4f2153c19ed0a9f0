package domain

import (
	"github.com/dukerupert/britishfloors/internal/money"
)

// Cart-related domain errors.
var (
	ErrInvalidQuantity     = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}
	ErrUnknownDiscountCode = &Error{Code: EINVALID, Message: "Invalid discount code"}
	ErrCurrencyMismatch    = &Error{Code: EINVALID, Message: "Item currency does not match the cart"}
	ErrVariantNotFound     = &Error{Code: ENOTFOUND, Message: "Product variant not found"}
	ErrCompareFull         = &Error{Code: EINVALID, Message: "Compare list is full"}
	ErrEmptyCart           = &Error{Code: EINVALID, Message: "Cart is empty"}
)

// LineItem is one product variant in the cart with its quantity.
// Price and AvailableForSale are captured when the item was added.
type LineItem struct {
	// ID is "<productID>-<variantID>".
	ID               string      `json:"id"`
	ProductID        string      `json:"productId"`
	ProductHandle    string      `json:"productHandle"`
	VariantID        string      `json:"variantId"`
	Title            string      `json:"title"`
	VariantTitle     string      `json:"variantTitle,omitempty"`
	Price            money.Money `json:"price"`
	Quantity         int         `json:"quantity"`
	ImageURL         string      `json:"imageUrl,omitempty"`
	AvailableForSale bool        `json:"availableForSale"`
}

// LineTotal returns price multiplied by quantity.
func (li LineItem) LineTotal() money.Money {
	total, err := li.Price.Multiply(li.Quantity)
	if err != nil {
		return money.Zero(li.Price.CurrencyCode)
	}
	return total
}

// LineItemID builds the stable line identifier for a product variant.
func LineItemID(productID, variantID string) string {
	return productID + "-" + variantID
}

// CartTotals is derived entirely from the line items and the applied discount.
type CartTotals struct {
	TotalQuantity  int         `json:"totalQuantity"`
	Subtotal       money.Money `json:"subtotal"`
	DiscountAmount money.Money `json:"discountAmount"`
	Total          money.Money `json:"total"`
}

// CartState is the read model returned to clients after every cart operation.
type CartState struct {
	Items        []LineItem `json:"items"`
	DiscountCode string     `json:"discountCode,omitempty"`
	CartTotals
}

// CartSnapshot is the persisted form of a cart. Only items survive a restart;
// discounts are session-scoped.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
}
