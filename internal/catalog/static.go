package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
)

const defaultPageSize = 20

// StaticCatalog serves a fixed product list. It backs the storefront in
// development and whenever the commerce platform credentials are placeholders.
type StaticCatalog struct {
	products    []Product
	collections []staticCollection
}

type staticCollection struct {
	Collection
	handles []string
}

// NewStaticCatalog returns a catalog seeded with the sample flooring range.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		products:    sampleProducts(),
		collections: sampleCollections(),
	}
}

// NewStaticCatalogWith returns a catalog holding the given products and no collections.
func NewStaticCatalogWith(products ...Product) *StaticCatalog {
	return &StaticCatalog{products: products}
}

func (c *StaticCatalog) ListProducts(ctx context.Context, first int, after string) (*ProductPage, error) {
	return paginate(c.products, first, after), nil
}

func (c *StaticCatalog) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	for _, p := range c.products {
		if p.Handle == handle {
			found := p
			return &found, nil
		}
	}
	return nil, domain.NotFound("catalog.product", "product", handle)
}

func (c *StaticCatalog) ListCollections(ctx context.Context, first int) ([]Collection, error) {
	if first <= 0 || first > len(c.collections) {
		first = len(c.collections)
	}
	out := make([]Collection, 0, first)
	for _, col := range c.collections[:first] {
		out = append(out, col.Collection)
	}
	return out, nil
}

func (c *StaticCatalog) CollectionByHandle(ctx context.Context, handle string, first int, after string) (*Collection, error) {
	for _, col := range c.collections {
		if col.Handle != handle {
			continue
		}
		var members []Product
		for _, h := range col.handles {
			for _, p := range c.products {
				if p.Handle == h {
					members = append(members, p)
				}
			}
		}
		page := paginate(members, first, after)
		out := col.Collection
		out.Products = page.Products
		out.PageInfo = page.PageInfo
		return &out, nil
	}
	return nil, domain.NotFound("catalog.collection", "collection", handle)
}

func (c *StaticCatalog) Search(ctx context.Context, query string, first int, after string) (*ProductPage, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return paginate(nil, first, after), nil
	}
	var matches []Product
	for _, p := range c.products {
		if matchesQuery(p, q) {
			matches = append(matches, p)
		}
	}
	return paginate(matches, first, after), nil
}

func matchesQuery(p Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.ProductType), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.EqualFold(tag, q) {
			return true
		}
	}
	return false
}

// paginate slices products using the decimal index of the last item as cursor.
func paginate(products []Product, first int, after string) *ProductPage {
	if first <= 0 {
		first = defaultPageSize
	}
	start := 0
	if after != "" {
		if idx, err := strconv.Atoi(after); err == nil && idx >= 0 {
			start = idx + 1
		}
	}
	if start > len(products) {
		start = len(products)
	}
	end := start + first
	if end > len(products) {
		end = len(products)
	}

	page := &ProductPage{
		Products: append([]Product(nil), products[start:end]...),
		PageInfo: PageInfo{
			HasNextPage:     end < len(products),
			HasPreviousPage: start > 0,
		},
	}
	if end > start {
		page.PageInfo.StartCursor = strconv.Itoa(start)
		page.PageInfo.EndCursor = strconv.Itoa(end - 1)
	}
	return page
}

func gbp(amount string) money.Money {
	return money.MustParse(amount, money.DefaultCurrency)
}

func flooring(id, handle, title, productType, description string, tags []string, variants ...Variant) Product {
	p := Product{
		ID:               "gid://shopify/Product/" + id,
		Handle:           handle,
		Title:            title,
		Description:      description,
		Vendor:           "British Floors",
		ProductType:      productType,
		Tags:             tags,
		AvailableForSale: true,
		Images: []Image{{
			URL:     "/static/images/products/" + handle + ".jpg",
			AltText: title,
		}},
		Variants: variants,
	}
	minPrice, maxPrice := variants[0].Price, variants[0].Price
	for _, v := range variants[1:] {
		if minPrice.Amount.GreaterThan(v.Price.Amount) {
			minPrice = v.Price
		}
		if v.Price.Amount.GreaterThan(maxPrice.Amount) {
			maxPrice = v.Price
		}
	}
	p.PriceRange = PriceRange{MinVariantPrice: minPrice, MaxVariantPrice: maxPrice}
	return p
}

func variant(id, title, price string) Variant {
	return Variant{
		ID:               "gid://shopify/ProductVariant/" + id,
		Title:            title,
		Price:            gbp(price),
		AvailableForSale: true,
		SelectedOptions:  []SelectedOption{{Name: "Pack", Value: title}},
	}
}

func sampleProducts() []Product {
	return []Product{
		flooring("1001", "premium-oak-hardwood-flooring", "Premium Oak Hardwood Flooring", "Hardwood",
			"Solid European oak boards with a brushed matt lacquer finish.",
			[]string{"oak", "hardwood", "solid"},
			variant("2001", "1.5m² pack", "149.99"),
			variant("2002", "3m² pack", "289.99"),
		),
		flooring("1002", "engineered-maple-flooring", "Engineered Maple Flooring", "Engineered",
			"Engineered maple with a 4mm wear layer, suitable for underfloor heating.",
			[]string{"maple", "engineered"},
			variant("2003", "2m² pack", "199.99"),
		),
		flooring("1003", "bamboo-flooring", "Bamboo Flooring", "Bamboo",
			"Strand-woven bamboo planks with a click-lock profile.",
			[]string{"bamboo", "eco"},
			variant("2004", "2m² pack", "149.99"),
		),
		flooring("1004", "grey-herringbone-laminate", "Grey Herringbone Laminate", "Laminate",
			"Water-resistant 12mm laminate in a herringbone pattern.",
			[]string{"laminate", "herringbone", "grey"},
			variant("2005", "1.8m² pack", "49.99"),
		),
		flooring("1005", "rustic-walnut-luxury-vinyl", "Rustic Walnut Luxury Vinyl", "Vinyl",
			"Rigid core luxury vinyl tile with an embossed walnut grain.",
			[]string{"vinyl", "walnut", "waterproof"},
			variant("2006", "2.2m² pack", "64.99"),
		),
		flooring("1006", "acoustic-underlay", "Acoustic Underlay", "Accessories",
			"5mm acoustic underlay for laminate and engineered floors.",
			[]string{"underlay", "accessories"},
			variant("2007", "10m² roll", "30.00"),
		),
	}
}

func sampleCollections() []staticCollection {
	return []staticCollection{
		{
			Collection: Collection{ID: "gid://shopify/Collection/3001", Handle: "wood-flooring", Title: "Wood Flooring",
				Description: "Solid, engineered and bamboo wood floors."},
			handles: []string{"premium-oak-hardwood-flooring", "engineered-maple-flooring", "bamboo-flooring"},
		},
		{
			Collection: Collection{ID: "gid://shopify/Collection/3002", Handle: "laminate-and-vinyl", Title: "Laminate & Vinyl",
				Description: "Hard-wearing floors for kitchens and busy hallways."},
			handles: []string{"grey-herringbone-laminate", "rustic-walnut-luxury-vinyl"},
		},
		{
			Collection: Collection{ID: "gid://shopify/Collection/3003", Handle: "accessories", Title: "Accessories"},
			handles:    []string{"acoustic-underlay"},
		},
	}
}
