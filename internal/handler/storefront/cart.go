package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/service"
)

// CartHandler handles all cart routes. Every response is the full cart state
// so the client can re-render totals without a second request.
type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ProductHandle string `json:"productHandle"`
	VariantID     string `json:"variantId"`
	Quantity      int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type discountRequest struct {
	Code string `json:"code"`
}

// Get handles GET /api/cart
func (h *CartHandler) Get(c echo.Context) error {
	state, err := h.carts.Get(c.Request().Context(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Add handles POST /api/cart/items
func (h *CartHandler) Add(c echo.Context) error {
	var req addItemRequest
	if err := bind(c, "cart.add", &req); err != nil {
		return err
	}
	state, err := h.carts.AddItem(c.Request().Context(), sessionID(c), req.ProductHandle, req.VariantID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Update handles PUT /api/cart/items/:variantId. A quantity of zero or less
// removes the line.
func (h *CartHandler) Update(c echo.Context) error {
	var req quantityRequest
	if err := bind(c, "cart.update", &req); err != nil {
		return err
	}
	state, err := h.carts.UpdateQuantity(c.Request().Context(), sessionID(c), pathParam(c, "variantId"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Remove handles DELETE /api/cart/items/:variantId
func (h *CartHandler) Remove(c echo.Context) error {
	state, err := h.carts.RemoveItem(c.Request().Context(), sessionID(c), pathParam(c, "variantId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(c echo.Context) error {
	state, err := h.carts.Clear(c.Request().Context(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// ApplyDiscount handles POST /api/cart/discount
func (h *CartHandler) ApplyDiscount(c echo.Context) error {
	var req discountRequest
	if err := bind(c, "cart.discount", &req); err != nil {
		return err
	}
	state, err := h.carts.ApplyDiscount(c.Request().Context(), sessionID(c), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// RemoveDiscount handles DELETE /api/cart/discount
func (h *CartHandler) RemoveDiscount(c echo.Context) error {
	state, err := h.carts.RemoveDiscount(c.Request().Context(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}
