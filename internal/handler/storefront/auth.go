package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/service"
)

// AuthHandler signs customers in and out. The platform token stays on the
// server; the browser only holds the session cookie.
type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type customerResponse struct {
	Customer *domain.Customer `json:"customer"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, "auth.login", &req); err != nil {
		return err
	}
	customer, err := h.accounts.Login(c.Request().Context(), sessionID(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customerResponse{Customer: customer})
}

// Register handles POST /api/auth/register. The new customer is signed in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req domain.Registration
	if err := bind(c, "auth.register", &req); err != nil {
		return err
	}
	customer, err := h.accounts.Register(c.Request().Context(), sessionID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customerResponse{Customer: customer})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	customer, err := h.accounts.Me(c.Request().Context(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customerResponse{Customer: customer})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.accounts.Logout(c.Request().Context(), sessionID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
