// Package cookie sets and reads the visitor session cookie.
package cookie

import (
	"net/http"
	"time"
)

// DefaultSessionName is the cookie that carries the visitor session id.
const DefaultSessionName = "bf_session"

// DefaultMaxAge keeps a visitor's cart for thirty days.
const DefaultMaxAge = 30 * 24 * time.Hour

// Config holds cookie configuration.
type Config struct {
	// Name of the session cookie.
	Name string

	// Domain scopes the cookie. Empty means host-only.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool

	MaxAge time.Duration
}

// NewConfig creates a session cookie configuration with defaults applied.
func NewConfig(name string, secure bool) *Config {
	if name == "" {
		name = DefaultSessionName
	}
	return &Config{Name: name, Secure: secure, MaxAge: DefaultMaxAge}
}

// SetSession writes the session cookie.
//
// The cookie is HttpOnly with SameSite=Lax, so it is sent on top-level
// navigations back from the hosted checkout.
func (c *Config) SetSession(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes the session cookie by setting MaxAge to -1.
func (c *Config) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session returns the session cookie value, or "".
func (c *Config) Session(r *http.Request) string {
	return Get(r, c.Name)
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
