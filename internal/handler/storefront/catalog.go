package storefront

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// CatalogHandler serves products, collections and search.
type CatalogHandler struct {
	catalog catalog.Catalog
}

func NewCatalogHandler(cat catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// ListProducts handles GET /api/products?first&after
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	page, err := h.catalog.ListProducts(c.Request().Context(), pageSize(c), c.QueryParam("after"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Product handles GET /api/products/:handle
func (h *CatalogHandler) Product(c echo.Context) error {
	handle := c.Param("handle")
	product, err := h.catalog.ProductByHandle(c.Request().Context(), handle)
	if err != nil {
		return err
	}
	if telemetry.Business != nil {
		telemetry.Business.ProductViews.WithLabelValues(product.Handle).Inc()
	}
	return c.JSON(http.StatusOK, product)
}

// ListCollections handles GET /api/collections?first
func (h *CatalogHandler) ListCollections(c echo.Context) error {
	cols, err := h.catalog.ListCollections(c.Request().Context(), pageSize(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"collections": cols})
}

// Collection handles GET /api/collections/:handle?first&after
func (h *CatalogHandler) Collection(c echo.Context) error {
	col, err := h.catalog.CollectionByHandle(c.Request().Context(), c.Param("handle"), pageSize(c), c.QueryParam("after"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, col)
}

// Search handles GET /api/search?q&first&after
func (h *CatalogHandler) Search(c echo.Context) error {
	page, err := h.catalog.Search(c.Request().Context(), c.QueryParam("q"), pageSize(c), c.QueryParam("after"))
	if err != nil {
		return err
	}
	if telemetry.Business != nil {
		telemetry.Business.ProductSearches.WithLabelValues(strconv.FormatBool(len(page.Products) > 0)).Inc()
	}
	return c.JSON(http.StatusOK, page)
}
