package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// CartService applies cart operations to a visitor's cart. Catalog lookups
// run before the visitor is locked; the mutation itself runs under the lock
// and is written through to the state store.
type CartService struct {
	sessions *SessionRegistry
	catalog  catalog.Catalog
	logger   zerolog.Logger
}

func NewCartService(sessions *SessionRegistry, cat catalog.Catalog, logger zerolog.Logger) *CartService {
	return &CartService{
		sessions: sessions,
		catalog:  cat,
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the visitor's cart.
func (s *CartService) Get(ctx context.Context, sessionID string) (domain.CartState, error) {
	var state domain.CartState
	err := s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		state = v.Cart.State()
		return nil
	})
	return state, err
}

// AddItem resolves a product variant and adds it to the cart.
func (s *CartService) AddItem(ctx context.Context, sessionID, productHandle, variantID string, quantity int) (domain.CartState, error) {
	if quantity < 1 {
		return domain.CartState{}, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.ProductByHandle(ctx, productHandle)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return domain.CartState{}, ErrProductNotFound
		}
		return domain.CartState{}, err
	}
	variant, ok := product.Variant(variantID)
	if !ok {
		return domain.CartState{}, domain.ErrVariantNotFound
	}
	if !variant.AvailableForSale {
		return domain.CartState{}, ErrVariantUnavailable
	}

	state, err := s.mutate(ctx, sessionID, "add", func(c *Cart) error {
		return c.AddItem(*product, variant, quantity)
	})
	if err == nil && telemetry.Business != nil {
		telemetry.Business.CartItemsAdd.WithLabelValues(product.Handle).Inc()
	}
	return state, err
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, variantID string, quantity int) (domain.CartState, error) {
	return s.mutate(ctx, sessionID, "update", func(c *Cart) error {
		c.UpdateQuantity(variantID, quantity)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, variantID string) (domain.CartState, error) {
	return s.mutate(ctx, sessionID, "remove", func(c *Cart) error {
		c.RemoveItem(variantID)
		return nil
	})
}

// Clear empties the cart and drops the discount.
func (s *CartService) Clear(ctx context.Context, sessionID string) (domain.CartState, error) {
	return s.mutate(ctx, sessionID, "clear", func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// ApplyDiscount applies a promotion code. An unknown code returns
// domain.ErrUnknownDiscountCode and leaves the cart as it was.
func (s *CartService) ApplyDiscount(ctx context.Context, sessionID, code string) (domain.CartState, error) {
	state, err := s.mutate(ctx, sessionID, "discount", func(c *Cart) error {
		return c.ApplyDiscount(code)
	})
	if telemetry.Business != nil {
		label, result := state.DiscountCode, "applied"
		if err != nil {
			label, result = "unknown", "rejected"
		}
		telemetry.Business.DiscountApplied.WithLabelValues(label, result).Inc()
	}
	return state, err
}

func (s *CartService) RemoveDiscount(ctx context.Context, sessionID string) (domain.CartState, error) {
	return s.mutate(ctx, sessionID, "discount_remove", func(c *Cart) error {
		c.RemoveDiscount()
		return nil
	})
}

// mutate runs fn against the cart. On error the returned state is the
// unchanged cart.
func (s *CartService) mutate(ctx context.Context, sessionID, operation string, fn func(c *Cart) error) (domain.CartState, error) {
	var state domain.CartState
	var opErr error
	err := s.sessions.Update(ctx, sessionID, func(v *Visitor) error {
		opErr = fn(v.Cart)
		state = v.Cart.State()
		return opErr
	})
	if opErr != nil {
		return state, opErr
	}
	if err != nil {
		return domain.CartState{}, err
	}
	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues(operation).Inc()
	}
	return state, nil
}

// ListKind names a visitor's product list.
type ListKind string

const (
	ListWishlist ListKind = "wishlist"
	ListCompare  ListKind = "compare"
)

// ListState is the read model of a wishlist or compare list.
type ListState struct {
	Kind     ListKind          `json:"kind"`
	Items    []catalog.Product `json:"items"`
	Count    int               `json:"count"`
	MaxItems int               `json:"maxItems,omitempty"`
	// Added reports whether the last add changed the list.
	Added bool `json:"added"`
}

// ListService manages wishlist and compare lists.
type ListService struct {
	sessions *SessionRegistry
	catalog  catalog.Catalog
}

func NewListService(sessions *SessionRegistry, cat catalog.Catalog) *ListService {
	return &ListService{sessions: sessions, catalog: cat}
}

func (k ListKind) set(v *Visitor) *productSet {
	if k == ListCompare {
		return &v.Compare.set
	}
	return &v.Wishlist.set
}

func listState(kind ListKind, set *productSet) ListState {
	return ListState{Kind: kind, Items: set.list(), Count: len(set.items), MaxItems: set.max}
}

func (s *ListService) Get(ctx context.Context, sessionID string, kind ListKind) (ListState, error) {
	var state ListState
	err := s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		state = listState(kind, kind.set(v))
		return nil
	})
	return state, err
}

// Add resolves a product by handle and adds it. Adding a product already in
// the list is not an error; a full compare list returns domain.ErrCompareFull.
func (s *ListService) Add(ctx context.Context, sessionID string, kind ListKind, productHandle string) (ListState, error) {
	product, err := s.catalog.ProductByHandle(ctx, productHandle)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return ListState{}, ErrProductNotFound
		}
		return ListState{}, err
	}

	var state ListState
	var addErr error
	err = s.sessions.Update(ctx, sessionID, func(v *Visitor) error {
		set := kind.set(v)
		var added bool
		added, addErr = set.add(*product)
		state = listState(kind, set)
		state.Added = added
		return addErr
	})
	if addErr != nil {
		return state, addErr
	}
	if err != nil {
		return ListState{}, err
	}
	if state.Added && telemetry.Business != nil {
		telemetry.Business.ListUpdated.WithLabelValues(string(kind), "add").Inc()
	}
	return state, nil
}

// Remove deletes a product by ID. Missing products are ignored.
func (s *ListService) Remove(ctx context.Context, sessionID string, kind ListKind, productID string) (ListState, error) {
	return s.mutate(ctx, sessionID, kind, "remove", func(set *productSet) {
		set.remove(productID)
	})
}

func (s *ListService) Clear(ctx context.Context, sessionID string, kind ListKind) (ListState, error) {
	return s.mutate(ctx, sessionID, kind, "clear", func(set *productSet) {
		set.items = nil
	})
}

func (s *ListService) mutate(ctx context.Context, sessionID string, kind ListKind, operation string, fn func(set *productSet)) (ListState, error) {
	var state ListState
	err := s.sessions.Update(ctx, sessionID, func(v *Visitor) error {
		set := kind.set(v)
		fn(set)
		state = listState(kind, set)
		return nil
	})
	if err != nil {
		return ListState{}, err
	}
	if telemetry.Business != nil {
		telemetry.Business.ListUpdated.WithLabelValues(string(kind), operation).Inc()
	}
	return state, nil
}
