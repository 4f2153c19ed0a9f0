// Package storefront serves the storefront JSON API and the few
// server-rendered pages (checkout success, order history).
package storefront

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/britishfloors/internal/domain"
)

const maxPageSize = 100

// sessionID returns the visitor session placed in the context by the session
// middleware.
func sessionID(c echo.Context) string {
	return domain.RequireSessionID(c.Request().Context())
}

// bind decodes the request body into dst. Malformed bodies become EINVALID.
func bind(c echo.Context, op string, dst any) error {
	if err := c.Bind(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		}
		return domain.WrapError(err, domain.EINVALID, op, "Invalid request body")
	}
	return nil
}

// queryInt parses a positive integer query parameter, returning def when it
// is absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// pageSize reads ?first= capped at maxPageSize. Zero lets the catalog choose.
func pageSize(c echo.Context) int {
	n := queryInt(c, "first", 0)
	if n > maxPageSize {
		n = maxPageSize
	}
	return n
}

// pathParam returns a path parameter with percent-escapes decoded. Platform
// ids such as "gid://shopify/ProductVariant/1" arrive escaped.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
