package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/orders"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// OrderService is the read-only order history view plus the reorder action.
//
// When the order platform is not configured or cannot be reached, the
// sample orders are served instead and the page is flagged IsFallback, so the
// history view always renders.
type OrderService struct {
	source   domain.OrderSource
	sample   *orders.SampleSource
	catalog  catalog.Catalog
	sessions *SessionRegistry
	logger   zerolog.Logger
}

// NewOrderService creates an order service. source may be nil.
func NewOrderService(source domain.OrderSource, cat catalog.Catalog, sessions *SessionRegistry, logger zerolog.Logger) *OrderService {
	return &OrderService{
		source:   source,
		sample:   orders.NewSampleSource(),
		catalog:  cat,
		sessions: sessions,
		logger:   logger.With().Str("service", "orders").Logger(),
	}
}

// ReorderResult reports what a reorder added to the cart.
type ReorderResult struct {
	OrderID string           `json:"orderId"`
	Added   int              `json:"added"`
	Skipped []string         `json:"skipped,omitempty"`
	Cart    domain.CartState `json:"cart"`
}

// ListOrders returns one page of the customer's orders.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	filter = filter.Normalize()

	if s.source == nil {
		return s.fallbackPage(ctx, filter, "not_configured")
	}

	page, err := s.source.ListOrders(ctx, filter)
	if err == nil {
		return page, nil
	}
	if !shouldFallBack(err) {
		return nil, err
	}
	s.logger.Warn().Err(err).Msg("order platform unavailable, serving sample orders")
	return s.fallbackPage(ctx, filter, "unavailable")
}

func (s *OrderService) fallbackPage(ctx context.Context, filter domain.OrderFilter, reason string) (*domain.OrderPage, error) {
	if telemetry.Business != nil {
		telemetry.Business.OrderHistoryFallbacks.WithLabelValues(reason).Inc()
	}
	page, err := s.sample.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	page.IsFallback = true
	return page, nil
}

// GetOrder returns a single order, falling back like ListOrders.
func (s *OrderService) GetOrder(ctx context.Context, customerToken, orderID string) (*domain.Order, error) {
	if s.source == nil {
		return s.sample.GetOrder(ctx, customerToken, orderID)
	}
	order, err := s.source.GetOrder(ctx, customerToken, orderID)
	if err != nil && shouldFallBack(err) {
		s.logger.Warn().Err(err).Str("order_id", orderID).Msg("order platform unavailable, serving sample order")
		return s.sample.GetOrder(ctx, customerToken, orderID)
	}
	return order, err
}

// Reorder adds every line of a delivered order back to the visitor's cart.
// Lines whose product or variant no longer resolves are skipped.
func (s *OrderService) Reorder(ctx context.Context, sessionID, customerToken, orderID string) (*ReorderResult, error) {
	order, err := s.GetOrder(ctx, customerToken, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Reorderable() {
		return nil, domain.ErrOrderNotReorderable
	}

	type resolved struct {
		product  catalog.Product
		variant  catalog.Variant
		quantity int
	}
	result := &ReorderResult{OrderID: order.ID}
	var lines []resolved

	// Catalog lookups happen before the visitor is locked.
	for _, line := range order.Items {
		product, err := s.catalog.ProductByHandle(ctx, line.ProductHandle)
		if err != nil {
			if domain.ErrorCode(err) != domain.ENOTFOUND {
				return nil, err
			}
			result.Skipped = append(result.Skipped, line.Title)
			continue
		}
		variant, ok := product.Variant(line.VariantID)
		if !ok || !variant.AvailableForSale {
			result.Skipped = append(result.Skipped, line.Title)
			continue
		}
		lines = append(lines, resolved{product: *product, variant: variant, quantity: line.Quantity})
	}

	err = s.sessions.Update(ctx, sessionID, func(v *Visitor) error {
		for _, l := range lines {
			if err := v.Cart.AddItem(l.product, l.variant, l.quantity); err != nil {
				s.logger.Debug().Err(err).Str("variant_id", l.variant.ID).Msg("reorder line rejected")
				result.Skipped = append(result.Skipped, l.product.Title)
				continue
			}
			result.Added++
			if telemetry.Business != nil {
				telemetry.Business.CartItemsAdd.WithLabelValues(l.product.Handle).Inc()
			}
		}
		result.Cart = v.Cart.State()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("reorder").Inc()
	}
	s.logger.Info().Str("order_id", order.ID).Int("added", result.Added).Int("skipped", len(result.Skipped)).Msg("order re-added to cart")
	return result, nil
}

// shouldFallBack reports whether an order platform error is an outage rather
// than an answer.
func shouldFallBack(err error) bool {
	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND, domain.EUNAUTHORIZED, domain.EINVALID:
		return false
	}
	return true
}
