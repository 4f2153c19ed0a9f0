package storefront

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/handler"
	"github.com/dukerupert/britishfloors/internal/service"
	"github.com/dukerupert/britishfloors/internal/views"
)

// CheckoutHandler submits checkouts and confirms them on return.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type quoteRequest struct {
	ShippingAddress address.Address `json:"shippingAddress"`
}

// Quote handles POST /api/checkout/quote and prices the current cart for the
// order summary.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := bind(c, "checkout.quote", &req); err != nil {
		return err
	}
	totals, err := h.checkout.Quote(c.Request().Context(), sessionID(c), req.ShippingAddress)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totals)
}

// Submit handles POST /api/checkout. A signed-in customer's email fills in a
// blank contact field.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var req domain.CheckoutRequest
	if err := bind(c, "checkout.submit", &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if strings.TrimSpace(req.Email) == "" {
		if customer := domain.CustomerFromContext(ctx); customer != nil {
			req.Email = customer.Email
		}
	}

	result, err := h.checkout.Submit(ctx, sessionID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Success handles GET /checkout/success?orderId. Landing here with the id of
// the visitor's pending checkout is the confirmation step and clears the cart.
func (h *CheckoutHandler) Success(c echo.Context) error {
	orderID := strings.TrimSpace(c.QueryParam("orderId"))
	if len(orderID) > 128 {
		return domain.Invalid("checkout.success", "Invalid order reference")
	}

	conf, err := h.checkout.ConfirmReturn(c.Request().Context(), sessionID(c), orderID)
	if err != nil {
		return err
	}
	if handler.AcceptsJSON(c.Request()) {
		return c.JSON(http.StatusOK, conf)
	}
	return handler.RenderOK(c, views.CheckoutSuccess(*conf))
}
