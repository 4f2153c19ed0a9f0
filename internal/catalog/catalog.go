// Package catalog defines the product model shared by the storefront and the
// commerce platform adapters, plus a static fallback catalog used when the
// platform is not configured.
package catalog

import (
	"context"

	"github.com/dukerupert/britishfloors/internal/money"
)

// Catalog is a read-only source of products and collections.
type Catalog interface {
	// ListProducts returns up to first products after the given cursor.
	ListProducts(ctx context.Context, first int, after string) (*ProductPage, error)

	// ProductByHandle returns a product by its URL handle.
	ProductByHandle(ctx context.Context, handle string) (*Product, error)

	// ListCollections returns up to first collections, without their products.
	ListCollections(ctx context.Context, first int) ([]Collection, error)

	// CollectionByHandle returns a collection with one page of its products.
	CollectionByHandle(ctx context.Context, handle string, first int, after string) (*Collection, error)

	// Search returns products matching a free-text query.
	Search(ctx context.Context, query string, first int, after string) (*ProductPage, error)
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Price             money.Money      `json:"price"`
	CompareAtPrice    *money.Money     `json:"compareAtPrice,omitempty"`
	AvailableForSale  bool             `json:"availableForSale"`
	QuantityAvailable int              `json:"quantityAvailable,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions,omitempty"`
	Image             *Image           `json:"image,omitempty"`
}

type PriceRange struct {
	MinVariantPrice money.Money `json:"minVariantPrice"`
	MaxVariantPrice money.Money `json:"maxVariantPrice"`
}

type Product struct {
	ID               string     `json:"id"`
	Handle           string     `json:"handle"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Vendor           string     `json:"vendor,omitempty"`
	ProductType      string     `json:"productType,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	AvailableForSale bool       `json:"availableForSale"`
	PriceRange       PriceRange `json:"priceRange"`
	Images           []Image    `json:"images,omitempty"`
	Variants         []Variant  `json:"variants,omitempty"`
}

// Variant looks up a variant by ID.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// FeaturedImage returns the first product image, or nil.
func (p Product) FeaturedImage() *Image {
	if len(p.Images) == 0 {
		return nil
	}
	img := p.Images[0]
	return &img
}

type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
}

type Collection struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Image       *Image    `json:"image,omitempty"`
	Products    []Product `json:"products,omitempty"`
	PageInfo    PageInfo  `json:"pageInfo"`
}
