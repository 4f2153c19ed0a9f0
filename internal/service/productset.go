package service

import (
	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
)

// CompareMaxItems is the number of products that fit on the comparison table.
const CompareMaxItems = 4

// ProductListSnapshot is the persisted form of a wishlist or compare list.
type ProductListSnapshot struct {
	Items []catalog.Product `json:"items"`
}

// productSet is an insertion-ordered set of products keyed by ID.
// A max of zero means unbounded.
type productSet struct {
	items []catalog.Product
	max   int
}

func (s *productSet) add(p catalog.Product) (bool, error) {
	if s.contains(p.ID) {
		return false, nil
	}
	if s.max > 0 && len(s.items) >= s.max {
		return false, domain.ErrCompareFull
	}
	s.items = append(s.items, p)
	return true, nil
}

func (s *productSet) remove(productID string) bool {
	for i, p := range s.items {
		if p.ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *productSet) contains(productID string) bool {
	for _, p := range s.items {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func (s *productSet) list() []catalog.Product {
	out := make([]catalog.Product, len(s.items))
	copy(out, s.items)
	return out
}

func (s *productSet) restore(snap ProductListSnapshot) {
	s.items = nil
	for _, p := range snap.Items {
		if p.ID == "" {
			continue
		}
		if _, err := s.add(p); err != nil {
			return
		}
	}
}

// Wishlist is a visitor's saved products.
type Wishlist struct {
	set productSet
}

func NewWishlist() *Wishlist {
	return &Wishlist{}
}

// Add saves a product. It returns false if the product was already saved.
func (w *Wishlist) Add(p catalog.Product) bool {
	added, _ := w.set.add(p)
	return added
}

func (w *Wishlist) Remove(productID string) bool   { return w.set.remove(productID) }
func (w *Wishlist) Contains(productID string) bool { return w.set.contains(productID) }
func (w *Wishlist) Clear()                         { w.set.items = nil }
func (w *Wishlist) Count() int                     { return len(w.set.items) }
func (w *Wishlist) Items() []catalog.Product       { return w.set.list() }

func (w *Wishlist) Snapshot() ProductListSnapshot {
	return ProductListSnapshot{Items: w.set.list()}
}

// Compare is a bounded list of products shown side by side.
type Compare struct {
	set productSet
}

func NewCompare() *Compare {
	return &Compare{set: productSet{max: CompareMaxItems}}
}

// Add appends a product. Duplicates return false with no error; a full list
// returns ErrCompareFull and is left unchanged.
func (c *Compare) Add(p catalog.Product) (bool, error) {
	return c.set.add(p)
}

func (c *Compare) Remove(productID string) bool   { return c.set.remove(productID) }
func (c *Compare) Contains(productID string) bool { return c.set.contains(productID) }
func (c *Compare) Clear()                         { c.set.items = nil }
func (c *Compare) Count() int                     { return len(c.set.items) }
func (c *Compare) MaxItems() int                  { return c.set.max }
func (c *Compare) Items() []catalog.Product       { return c.set.list() }

func (c *Compare) Snapshot() ProductListSnapshot {
	return ProductListSnapshot{Items: c.set.list()}
}
