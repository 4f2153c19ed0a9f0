package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetAndReadSession(t *testing.T) {
	cfg := NewConfig("", true)
	rec := httptest.NewRecorder()
	cfg.SetSession(rec, "abc123")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, DefaultSessionName, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(DefaultMaxAge.Seconds()), c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, "abc123", cfg.Session(req))
}

func TestConfig_ClearSession(t *testing.T) {
	cfg := NewConfig("sid", false)
	rec := httptest.NewRecorder()
	cfg.ClearSession(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGet_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Get(req, "nope"))
}
