package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/cookie"
	"github.com/dukerupert/britishfloors/internal/domain"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID()(func(c echo.Context) error {
		seen = GetRequestID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, h(c))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "lb-123")
	c, rec = newContext(req)
	require.NoError(t, h(c))
	assert.Equal(t, "lb-123", seen)
	assert.Equal(t, "lb-123", rec.Header().Get(RequestIDHeader))
}

func TestSession_IssuesCookieOnce(t *testing.T) {
	cfg := cookie.NewConfig("", false)

	var seen string
	h := Session(cfg)(func(c echo.Context) error {
		seen = domain.SessionIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, h(c))
	require.NotEmpty(t, seen)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookie.DefaultSessionName, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	first := seen
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.DefaultSessionName, Value: first})
	c, rec = newContext(req)
	require.NoError(t, h(c))
	assert.Equal(t, first, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	cfg := cookie.NewConfig("", false)

	var seen string
	h := Session(cfg)(func(c echo.Context) error {
		seen = domain.SessionIDFromContext(c.Request().Context())
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.DefaultSessionName, Value: "../etc"})
	c, rec := newContext(req)
	require.NoError(t, h(c))
	assert.NotEqual(t, "../etc", seen)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		KeyFunc:           func(c echo.Context) string { return "client" },
	})
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }

	h := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		c, _ := newContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		require.NoError(t, h(c))
	}

	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	err := h(c)
	require.Error(t, err)
	assert.Equal(t, domain.ERATELIMIT, domain.ErrorCode(err))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	now = now.Add(2 * time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 0, rl.Cleanup())
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultSecurityHeadersConfig())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, h(c))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	cfg := DefaultSecurityHeadersConfig()
	cfg.HSTSMaxAge = 0
	h = SecurityHeaders(cfg)(func(c echo.Context) error { return nil })
	c, rec = newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, h(c))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"quantity":1000000}`))
	c, _ := newContext(req)
	err := h(c)
	require.Error(t, err)
	assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(err))

	req = httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{}`))
	c, _ = newContext(req)
	assert.NoError(t, h(c))
}

func TestTimeout_SetsDeadline(t *testing.T) {
	h := Timeout(time.Second)(func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.True(t, ok)
		return nil
	})
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, h(c))
}

func TestMetrics_LabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/products/:handle", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", m.Handler())

	for _, handle := range []string{"oak", "maple"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+handle, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="/api/products/:handle",status="200"} 2`)
	assert.NotContains(t, body, "/api/products/oak")
}
