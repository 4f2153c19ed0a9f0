package domain

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/money"
)

// Order-related domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderNotReorderable = &Error{Code: EINVALID, Message: "Only delivered orders can be reordered"}
)

// OrderStatus is the fulfilment state reported by the order platform.
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "placed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusUnknown    OrderStatus = "unknown"
)

// ParseOrderStatus maps a platform status string onto a known status.
// Anything unrecognised becomes OrderStatusUnknown.
func ParseOrderStatus(s string) OrderStatus {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st
	}
	return OrderStatusUnknown
}

// Label is the customer-facing status text.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPlaced:
		return "Placed"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusShipped:
		return "Shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Reorderable reports whether the "Reorder" action is offered.
func (s OrderStatus) Reorderable() bool {
	return s == OrderStatusDelivered
}

type OrderLine struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	VariantTitle  string      `json:"variantTitle,omitempty"`
	ProductHandle string      `json:"productHandle,omitempty"`
	VariantID     string      `json:"variantId,omitempty"`
	Quantity      int         `json:"quantity"`
	Price         money.Money `json:"price"`
	ImageURL      string      `json:"imageUrl,omitempty"`
}

// Order is a read-only historic order.
type Order struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"orderNumber"`
	Date               time.Time       `json:"date"`
	Status             OrderStatus     `json:"status"`
	Total              money.Money     `json:"total"`
	Items              []OrderLine     `json:"items"`
	ShippingAddress    address.Address `json:"shippingAddress"`
	TrackingNumber     string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimatedDelivery,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
}

// OrderFilter selects a page of a customer's orders.
type OrderFilter struct {
	CustomerToken string
	// Status filters by fulfilment state; empty or "all" returns every order.
	Status string
	Page   int
	Limit  int
}

// MaxOrderLimit caps the page size a caller may request.
const MaxOrderLimit = 100

// Normalize applies the default page (1) and limit (10) and caps the limit at
// MaxOrderLimit.
func (f OrderFilter) Normalize() OrderFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > MaxOrderLimit {
		f.Limit = MaxOrderLimit
	}
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "all" {
		f.Status = ""
	}
	return f
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalOrders int  `json:"totalOrders"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// OrderPage is one page of order history.
type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
	// IsFallback is set when the order platform was unreachable and sample
	// data was served instead.
	IsFallback bool `json:"isFallback"`
}

// OrderSource is the external system of record for placed orders.
type OrderSource interface {
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)
	GetOrder(ctx context.Context, customerToken, orderID string) (*Order, error)
}
