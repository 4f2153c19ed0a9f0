package storefront

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and which collaborators are live.
type HealthHandler struct {
	started time.Time
	status  map[string]string
}

// NewHealthHandler takes a description of the configured collaborators, e.g.
// {"checkout": "stripe", "catalog": "static"}.
func NewHealthHandler(status map[string]string) *HealthHandler {
	return &HealthHandler{started: time.Now(), status: status}
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"components": h.status,
	})
}
