package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/cookie"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/service"
	"github.com/dukerupert/britishfloors/internal/storage"
)

// Session ensures every request carries a visitor session id. A missing or
// malformed cookie is replaced with a fresh id; the id is placed in the
// request context for handlers.
func Session(cfg *cookie.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			sessionID := cfg.Session(r)
			if storage.ValidateKey(sessionID, "") != nil {
				id, err := service.GenerateSessionID()
				if err != nil {
					return domain.Internal(err, "middleware.session", "failed to start session")
				}
				sessionID = id
				cfg.SetSession(c.Response(), sessionID)
			}

			c.SetRequest(r.WithContext(domain.NewContextWithSessionID(r.Context(), sessionID)))
			return next(c)
		}
	}
}

// WithCustomer attaches the logged-in customer to the request context when
// the visitor has signed in. Guests pass through unchanged.
func WithCustomer(accounts *service.AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			sessionID := domain.SessionIDFromContext(r.Context())
			if sessionID == "" {
				return next(c)
			}

			customer, err := accounts.Me(r.Context(), sessionID)
			if err != nil {
				if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
					l := GetLogger(r.Context(), zerolog.Nop())
					l.Warn().Err(err).Msg("failed to resolve customer")
				}
				return next(c)
			}

			c.SetRequest(r.WithContext(domain.NewContextWithCustomer(r.Context(), customer)))
			return next(c)
		}
	}
}
