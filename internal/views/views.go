// Package views holds the server-rendered storefront pages. Pages are templ
// components so handlers render them the same way whether they come from
// .templ sources or are composed in Go.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/dukerupert/britishfloors/internal/money"
)

// SiteName appears in every page title and header.
const SiteName = "British Floors"

// page accumulates the first write error so components read top to bottom.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) textf(format string, args ...any) {
	p.text(fmt.Sprintf(format, args...))
}

// attr writes name="value" with value escaped.
func (p *page) attr(name, value string) {
	p.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (p *page) href(u templ.SafeURL) {
	p.attr("href", string(u))
}

func (p *page) component(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

// Layout wraps body in the storefront chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw("<!DOCTYPE html><html lang=\"en-GB\"><head><meta charset=\"utf-8\">")
		p.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		p.raw("<title>")
		if title != "" {
			p.text(title + " | ")
		}
		p.text(SiteName)
		p.raw("</title><link rel=\"stylesheet\" href=\"/static/css/site.css\"></head><body>")
		p.raw("<header class=\"site-header\"><a class=\"logo\" href=\"/\">")
		p.text(SiteName)
		p.raw("</a><nav><a href=\"/products\">Products</a><a href=\"/collections\">Collections</a>")
		p.raw("<a href=\"/account/orders\">Orders</a><a href=\"/cart\">Cart</a></nav></header>")
		p.raw("<main>")
		p.component(ctx, body)
		p.raw("</main><footer class=\"site-footer\"><p>&copy; ")
		p.text(strconv.Itoa(time.Now().Year()))
		p.raw(" ")
		p.text(SiteName)
		p.raw("</p></footer></body></html>")
		return p.err
	})
}

// ErrorPage renders a plain error message for browser requests.
func ErrorPage(status int, message string) templ.Component {
	return Layout("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw("<section class=\"error-page\"><h1>")
		p.text(strconv.Itoa(status))
		p.raw("</h1><p>")
		p.text(message)
		p.raw("</p><a class=\"button\" href=\"/\">Continue shopping</a></section>")
		return p.err
	}))
}

func price(m money.Money) string {
	return money.Display(m)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
