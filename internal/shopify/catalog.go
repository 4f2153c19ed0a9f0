package shopify

import (
	"context"

	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
)

const (
	imageFields = `url altText width height`

	productFields = `
fragment ProductFields on Product {
  id
  handle
  title
  description
  vendor
  productType
  tags
  availableForSale
  priceRange {
    minVariantPrice { amount currencyCode }
    maxVariantPrice { amount currencyCode }
  }
  images(first: 10) { edges { node { ` + imageFields + ` } } }
  variants(first: 50) {
    edges {
      node {
        id
        title
        availableForSale
        quantityAvailable
        price { amount currencyCode }
        compareAtPrice { amount currencyCode }
        selectedOptions { name value }
        image { ` + imageFields + ` }
      }
    }
  }
}`

	pageInfoFields = `pageInfo { hasNextPage hasPreviousPage startCursor endCursor }`

	productsQuery = `
query Products($first: Int!, $after: String, $query: String) {
  products(first: $first, after: $after, query: $query) {
    edges { node { ...ProductFields } }
    ` + pageInfoFields + `
  }
}` + productFields

	productByHandleQuery = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) { ...ProductFields }
}` + productFields

	collectionsQuery = `
query Collections($first: Int!) {
  collections(first: $first) {
    edges { node { id handle title description image { ` + imageFields + ` } } }
  }
}`

	collectionByHandleQuery = `
query CollectionByHandle($handle: String!, $first: Int!, $after: String) {
  collection(handle: $handle) {
    id
    handle
    title
    description
    image { ` + imageFields + ` }
    products(first: $first, after: $after) {
      edges { node { ...ProductFields } }
      ` + pageInfoFields + `
    }
  }
}` + productFields
)

const defaultPageSize = 20

// Catalog implements catalog.Catalog against the Storefront API.
type Catalog struct {
	client *Client
}

func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

type edges[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (e edges[T]) nodes() []T {
	out := make([]T, 0, len(e.Edges))
	for _, edge := range e.Edges {
		out = append(out, edge.Node)
	}
	return out
}

type productNode struct {
	ID               string                 `json:"id"`
	Handle           string                 `json:"handle"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Vendor           string                 `json:"vendor"`
	ProductType      string                 `json:"productType"`
	Tags             []string               `json:"tags"`
	AvailableForSale bool                   `json:"availableForSale"`
	PriceRange       catalog.PriceRange     `json:"priceRange"`
	Images           edges[catalog.Image]   `json:"images"`
	Variants         edges[catalog.Variant] `json:"variants"`
}

func (n productNode) toProduct() catalog.Product {
	return catalog.Product{
		ID:               n.ID,
		Handle:           n.Handle,
		Title:            n.Title,
		Description:      n.Description,
		Vendor:           n.Vendor,
		ProductType:      n.ProductType,
		Tags:             n.Tags,
		AvailableForSale: n.AvailableForSale,
		PriceRange:       n.PriceRange,
		Images:           n.Images.nodes(),
		Variants:         n.Variants.nodes(),
	}
}

type productConnection struct {
	edges[productNode]
	PageInfo catalog.PageInfo `json:"pageInfo"`
}

func (c productConnection) toPage() *catalog.ProductPage {
	nodes := c.nodes()
	products := make([]catalog.Product, 0, len(nodes))
	for _, n := range nodes {
		products = append(products, n.toProduct())
	}
	return &catalog.ProductPage{Products: products, PageInfo: c.PageInfo}
}

func pageSize(first int) int {
	if first <= 0 {
		return defaultPageSize
	}
	return first
}

func (c *Catalog) ListProducts(ctx context.Context, first int, after string) (*catalog.ProductPage, error) {
	return c.products(ctx, "products", first, after, "")
}

func (c *Catalog) Search(ctx context.Context, query string, first int, after string) (*catalog.ProductPage, error) {
	return c.products(ctx, "search", first, after, query)
}

func (c *Catalog) products(ctx context.Context, operation string, first int, after, query string) (*catalog.ProductPage, error) {
	var data struct {
		Products productConnection `json:"products"`
	}
	vars := map[string]any{
		"first": pageSize(first),
		"after": nullable(after),
		"query": nullable(query),
	}
	if err := c.client.Do(ctx, operation, productsQuery, vars, &data); err != nil {
		return nil, domain.Unavailable(err, "shopify.catalog."+operation, "Products are temporarily unavailable")
	}
	return data.Products.toPage(), nil
}

func (c *Catalog) ProductByHandle(ctx context.Context, handle string) (*catalog.Product, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.client.Do(ctx, "product", productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, domain.Unavailable(err, "shopify.catalog.product", "Product is temporarily unavailable")
	}
	if data.Product == nil {
		return nil, domain.NotFound("shopify.catalog.product", "product", handle)
	}
	p := data.Product.toProduct()
	return &p, nil
}

func (c *Catalog) ListCollections(ctx context.Context, first int) ([]catalog.Collection, error) {
	var data struct {
		Collections edges[catalog.Collection] `json:"collections"`
	}
	if err := c.client.Do(ctx, "collections", collectionsQuery, map[string]any{"first": pageSize(first)}, &data); err != nil {
		return nil, domain.Unavailable(err, "shopify.catalog.collections", "Collections are temporarily unavailable")
	}
	return data.Collections.nodes(), nil
}

func (c *Catalog) CollectionByHandle(ctx context.Context, handle string, first int, after string) (*catalog.Collection, error) {
	var data struct {
		Collection *struct {
			ID          string            `json:"id"`
			Handle      string            `json:"handle"`
			Title       string            `json:"title"`
			Description string            `json:"description"`
			Image       *catalog.Image    `json:"image"`
			Products    productConnection `json:"products"`
		} `json:"collection"`
	}
	vars := map[string]any{
		"handle": handle,
		"first":  pageSize(first),
		"after":  nullable(after),
	}
	if err := c.client.Do(ctx, "collection", collectionByHandleQuery, vars, &data); err != nil {
		return nil, domain.Unavailable(err, "shopify.catalog.collection", "Collection is temporarily unavailable")
	}
	if data.Collection == nil {
		return nil, domain.NotFound("shopify.catalog.collection", "collection", handle)
	}
	page := data.Collection.Products.toPage()
	return &catalog.Collection{
		ID:          data.Collection.ID,
		Handle:      data.Collection.Handle,
		Title:       data.Collection.Title,
		Description: data.Collection.Description,
		Image:       data.Collection.Image,
		Products:    page.Products,
		PageInfo:    page.PageInfo,
	}, nil
}
