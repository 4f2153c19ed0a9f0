package billing

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FallbackProvider completes checkout locally when no platform is configured.
// It never makes a network call and never fails, so the storefront flow can
// be exercised end to end in development.
type FallbackProvider struct {
	now func() time.Time
}

func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{now: time.Now}
}

func (p *FallbackProvider) Name() string { return "mock" }

// CreateCheckoutSession returns a "BRF-" order ID and points at the local
// confirmation page.
func (p *FallbackProvider) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	id := MockOrderID(p.now())
	target := "/checkout/success"
	if params.SuccessURL != "" {
		target = params.SuccessURL
	}
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/checkout/success"}
	}
	q := u.Query()
	q.Set("orderId", id)
	u.RawQuery = q.Encode()

	return &Session{
		ID:     id,
		URL:    u.String(),
		Total:  params.Total,
		IsMock: true,
	}, nil
}

// MockOrderID is "BRF-" followed by the last eight digits of the Unix
// millisecond timestamp.
func MockOrderID(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "BRF-" + ms
}

// IsMockOrderID reports whether id has the shape MockOrderID produces.
func IsMockOrderID(id string) bool {
	digits, ok := strings.CutPrefix(id, "BRF-")
	if !ok || len(digits) != 8 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
