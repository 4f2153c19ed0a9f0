package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/domain"
)

// Recover turns a handler panic into an EINTERNAL error so the client gets a
// 500 through the regular error handler instead of a dropped connection.
// Place it after RequestLogger so the failure is logged with the request.
func Recover(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if e, ok := rec.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(rec)
				}

				r := c.Request()
				l := GetLogger(r.Context(), logger)
				l.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				err = domain.Internal(fmt.Errorf("panic: %v", rec), "http.recover", "panic recovered")
			}()
			return next(c)
		}
	}
}
