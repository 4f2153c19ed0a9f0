package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger injects a request-scoped logger into the context and logs
// each request once it completes. Place it after RequestID.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			r := c.Request()

			lc := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path)
			if requestID := GetRequestID(r.Context()); requestID != "" {
				lc = lc.Str("request_id", requestID)
			}
			logger := lc.Logger()
			c.SetRequest(r.WithContext(logger.WithContext(r.Context())))

			handleError(c, next(c))

			status := c.Response().Status
			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error()
			case status >= 400:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}
			evt.Int("status", status).
				Dur("duration", time.Since(start)).
				Int64("bytes", c.Response().Size).
				Msg("request")
			return nil
		}
	}
}

// GetLogger retrieves the request-scoped logger from the context, or
// fallback when none was injected.
func GetLogger(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return *l
}

// handleError renders err through the echo error handler so the response
// status is known to the calling middleware.
func handleError(c echo.Context, err error) {
	if err != nil {
		c.Error(err)
	}
}
