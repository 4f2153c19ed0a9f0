// Package orders provides order history sources: an HTTP client for the order
// platform and a fixed sample set served when that platform is unreachable.
package orders

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
)

// SampleSource serves SampleOrders for every customer.
type SampleSource struct {
	orders []domain.Order
}

func NewSampleSource() *SampleSource {
	return &SampleSource{orders: SampleOrders()}
}

func (s *SampleSource) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	return Paginate(s.orders, filter), nil
}

func (s *SampleSource) GetOrder(ctx context.Context, customerToken, orderID string) (*domain.Order, error) {
	for _, o := range s.orders {
		if strings.EqualFold(o.ID, orderID) {
			found := o
			return &found, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// Paginate filters orders by exact status and returns the requested page.
// Page numbers are 1-based; a page past the end is empty.
func Paginate(orders []domain.Order, filter domain.OrderFilter) *domain.OrderPage {
	filter = filter.Normalize()

	matched := orders
	if filter.Status != "" {
		matched = make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			if string(o.Status) == filter.Status {
				matched = append(matched, o)
			}
		}
	}

	total := len(matched)
	pages := (total + filter.Limit - 1) / filter.Limit
	start, end := total, total
	// Compare page numbers before multiplying so an absurd ?page= cannot overflow.
	if filter.Page <= pages {
		start = (filter.Page - 1) * filter.Limit
		end = min(start+filter.Limit, total)
	}

	return &domain.OrderPage{
		Orders: append([]domain.Order{}, matched[start:end]...),
		Pagination: domain.Pagination{
			CurrentPage: filter.Page,
			TotalPages:  pages,
			TotalOrders: total,
			HasNextPage: end < total,
			HasPrevPage: filter.Page > 1,
		},
	}
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func gbp(s string) money.Money {
	return money.MustParse(s, money.DefaultCurrency)
}

// SampleOrders returns three orders covering the delivered, processing and
// cancelled states.
func SampleOrders() []domain.Order {
	home := address.Address{
		FirstName: "John",
		LastName:  "Doe",
		Address1:  "123 Main Street",
		City:      "London",
		State:     "England",
		ZipCode:   "SW1A 1AA",
		Country:   "United Kingdom",
	}
	delivered := date("2024-01-20")
	processing := date("2024-01-25")

	return []domain.Order{
		{
			ID:          "BRF-2024-001",
			OrderNumber: "BRF-2024-001",
			Date:        date("2024-01-15"),
			Status:      domain.OrderStatusDelivered,
			Total:       gbp("299.99"),
			Items: []domain.OrderLine{{
				ID:            "1",
				Title:         "Premium Oak Hardwood Flooring",
				VariantTitle:  "Natural Oak, 20mm thickness",
				ProductHandle: "premium-oak-hardwood-flooring",
				VariantID:     "gid://shopify/ProductVariant/2001",
				Quantity:      2,
				Price:         gbp("149.99"),
				ImageURL:      "/static/images/products/premium-oak-hardwood-flooring.jpg",
			}},
			ShippingAddress:   home,
			TrackingNumber:    "TRK123456789",
			EstimatedDelivery: &delivered,
		},
		{
			ID:          "BRF-2024-002",
			OrderNumber: "BRF-2024-002",
			Date:        date("2024-01-10"),
			Status:      domain.OrderStatusProcessing,
			Total:       gbp("599.98"),
			Items: []domain.OrderLine{{
				ID:            "2",
				Title:         "Engineered Maple Flooring",
				VariantTitle:  "Light Maple, 15mm thickness",
				ProductHandle: "engineered-maple-flooring",
				VariantID:     "gid://shopify/ProductVariant/2003",
				Quantity:      3,
				Price:         gbp("199.99"),
				ImageURL:      "/static/images/products/engineered-maple-flooring.jpg",
			}},
			ShippingAddress:   home,
			EstimatedDelivery: &processing,
		},
		{
			ID:          "BRF-2024-003",
			OrderNumber: "BRF-2024-003",
			Date:        date("2024-01-05"),
			Status:      domain.OrderStatusCancelled,
			Total:       gbp("149.99"),
			Items: []domain.OrderLine{{
				ID:            "3",
				Title:         "Bamboo Flooring",
				VariantTitle:  "Natural Bamboo, 12mm thickness",
				ProductHandle: "bamboo-flooring",
				VariantID:     "gid://shopify/ProductVariant/2004",
				Quantity:      1,
				Price:         gbp("149.99"),
				ImageURL:      "/static/images/products/bamboo-flooring.jpg",
			}},
			ShippingAddress:    home,
			CancellationReason: "Customer requested cancellation",
		},
	}
}
