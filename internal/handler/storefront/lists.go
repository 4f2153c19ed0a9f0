package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/service"
)

// ListHandler serves one product list (wishlist or compare). The same
// handler type is mounted twice with a different kind.
type ListHandler struct {
	lists *service.ListService
	kind  service.ListKind
}

func NewListHandler(lists *service.ListService, kind service.ListKind) *ListHandler {
	return &ListHandler{lists: lists, kind: kind}
}

type listAddRequest struct {
	ProductHandle string `json:"productHandle"`
}

// Get handles GET /api/{wishlist,compare}
func (h *ListHandler) Get(c echo.Context) error {
	state, err := h.lists.Get(c.Request().Context(), sessionID(c), h.kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Add handles POST /api/{wishlist,compare}. Re-adding a listed product
// returns 200 with added=false.
func (h *ListHandler) Add(c echo.Context) error {
	var req listAddRequest
	if err := bind(c, string(h.kind)+".add", &req); err != nil {
		return err
	}
	state, err := h.lists.Add(c.Request().Context(), sessionID(c), h.kind, req.ProductHandle)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if state.Added {
		status = http.StatusCreated
	}
	return c.JSON(status, state)
}

// Remove handles DELETE /api/{wishlist,compare}/:productId
func (h *ListHandler) Remove(c echo.Context) error {
	state, err := h.lists.Remove(c.Request().Context(), sessionID(c), h.kind, pathParam(c, "productId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Clear handles DELETE /api/{wishlist,compare}
func (h *ListHandler) Clear(c echo.Context) error {
	state, err := h.lists.Clear(c.Request().Context(), sessionID(c), h.kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}
