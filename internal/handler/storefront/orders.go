package storefront

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/handler"
	"github.com/dukerupert/britishfloors/internal/service"
	"github.com/dukerupert/britishfloors/internal/views"
)

// OrderHandler serves order history and the reorder action.
type OrderHandler struct {
	orders   *service.OrderService
	accounts *service.AccountService
}

func NewOrderHandler(orders *service.OrderService, accounts *service.AccountService) *OrderHandler {
	return &OrderHandler{orders: orders, accounts: accounts}
}

func (h *OrderHandler) filter(c echo.Context) (domain.OrderFilter, error) {
	token, err := h.accounts.CustomerToken(c.Request().Context(), sessionID(c))
	if err != nil {
		return domain.OrderFilter{}, err
	}
	return domain.OrderFilter{
		CustomerToken: token,
		Status:        c.QueryParam("status"),
		Page:          queryInt(c, "page", 1),
		Limit:         min(queryInt(c, "limit", 10), maxPageSize),
	}.Normalize(), nil
}

// List handles GET /api/orders?status&page&limit
func (h *OrderHandler) List(c echo.Context) error {
	filter, err := h.filter(c)
	if err != nil {
		return err
	}
	page, err := h.orders.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Page handles GET /account/orders
func (h *OrderHandler) Page(c echo.Context) error {
	filter, err := h.filter(c)
	if err != nil {
		return err
	}
	page, err := h.orders.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return handler.RenderOK(c, views.AccountOrders(views.AccountOrdersData{
		Customer: domain.CustomerFromContext(c.Request().Context()),
		Page:     page,
		Status:   filter.Status,
	}))
}

// Reorder handles POST /api/orders/:id/reorder. Form posts from the order
// history page are redirected to the cart.
func (h *OrderHandler) Reorder(c echo.Context) error {
	ctx := c.Request().Context()
	sid := sessionID(c)
	token, err := h.accounts.CustomerToken(ctx, sid)
	if err != nil {
		return err
	}

	result, err := h.orders.Reorder(ctx, sid, token, pathParam(c, "id"))
	if err != nil {
		return err
	}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		return c.Redirect(http.StatusSeeOther, "/cart")
	}
	return c.JSON(http.StatusOK, result)
}
