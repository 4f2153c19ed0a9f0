package views

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dukerupert/britishfloors/internal/domain"
)

// OrderStatusFilters are the tabs on the order history page, in display order.
var OrderStatusFilters = []domain.OrderStatus{
	domain.OrderStatusProcessing,
	domain.OrderStatusShipped,
	domain.OrderStatusDelivered,
	domain.OrderStatusCancelled,
}

type AccountOrdersData struct {
	Customer *domain.Customer
	Page     *domain.OrderPage
	// Status is the active filter; empty shows every order.
	Status string
}

// AccountOrders renders the customer's order history with status tabs,
// pagination and a reorder action on delivered orders.
func AccountOrders(data AccountOrdersData) templ.Component {
	return Layout("Your orders", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw("<section class=\"account-orders\"><h1>Your orders</h1>")
		if data.Customer != nil {
			p.raw("<p class=\"greeting\">Signed in as ")
			p.text(data.Customer.Email)
			p.raw("</p>")
		}

		p.raw("<nav class=\"order-filters\">")
		filterLink(p, "", "All", data.Status)
		for _, st := range OrderStatusFilters {
			filterLink(p, string(st), st.Label(), data.Status)
		}
		p.raw("</nav>")

		if data.Page == nil || len(data.Page.Orders) == 0 {
			p.raw("<p class=\"empty\">No orders found.</p></section>")
			return p.err
		}
		if data.Page.IsFallback {
			p.raw("<p class=\"notice\">Showing sample orders while order history is unavailable.</p>")
		}

		for _, o := range data.Page.Orders {
			orderCard(p, o)
		}
		pagination(p, data.Page.Pagination, data.Status)
		p.raw("</section>")
		return p.err
	}))
}

func ordersURL(status string, pageNum int) templ.SafeURL {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if pageNum > 1 {
		q.Set("page", strconv.Itoa(pageNum))
	}
	if len(q) == 0 {
		return templ.URL("/account/orders")
	}
	return templ.URL("/account/orders?" + q.Encode())
}

func filterLink(p *page, status, label, active string) {
	p.raw("<a")
	p.href(ordersURL(status, 1))
	if status == active {
		p.attr("class", "active")
		p.attr("aria-current", "page")
	}
	p.raw(">")
	p.text(label)
	p.raw("</a>")
}

func orderCard(p *page, o domain.Order) {
	p.raw("<article class=\"order-card\"")
	p.attr("data-order-id", o.ID)
	p.raw("><header><h2>Order ")
	p.text(o.OrderNumber)
	p.raw("</h2><span")
	p.attr("class", "status status-"+string(o.Status))
	p.raw(">")
	p.text(o.Status.Label())
	p.raw("</span><time>")
	p.text(formatDate(o.Date))
	p.raw("</time></header><ul class=\"order-lines\">")
	for _, line := range o.Items {
		p.raw("<li>")
		p.text(line.Title)
		if line.VariantTitle != "" {
			p.raw(" <small>")
			p.text(line.VariantTitle)
			p.raw("</small>")
		}
		p.raw(" &times; ")
		p.text(strconv.Itoa(line.Quantity))
		p.raw(" <span class=\"price\">")
		p.text(price(line.Price))
		p.raw("</span></li>")
	}
	p.raw("</ul><footer><p class=\"total\">")
	p.text(pluralize(len(o.Items), "item", "items"))
	p.raw(", total ")
	p.text(price(o.Total))
	p.raw("</p>")
	if o.TrackingNumber != "" {
		p.raw("<p class=\"tracking\">Tracking: ")
		p.text(o.TrackingNumber)
		p.raw("</p>")
	}
	if o.EstimatedDelivery != nil && o.Status != domain.OrderStatusDelivered && o.Status != domain.OrderStatusCancelled {
		p.raw("<p class=\"eta\">Estimated delivery ")
		p.text(formatDate(*o.EstimatedDelivery))
		p.raw("</p>")
	}
	if o.CancellationReason != "" {
		p.raw("<p class=\"cancelled\">")
		p.text(o.CancellationReason)
		p.raw("</p>")
	}
	if o.Status.Reorderable() {
		p.raw("<form method=\"post\"")
		p.attr("action", "/api/orders/"+url.PathEscape(o.ID)+"/reorder")
		p.raw("><button type=\"submit\">Reorder</button></form>")
	}
	p.raw("</footer></article>")
}

func pagination(p *page, pg domain.Pagination, status string) {
	if pg.TotalPages <= 1 {
		return
	}
	p.raw("<nav class=\"pagination\">")
	if pg.HasPrevPage {
		p.raw("<a rel=\"prev\"")
		p.href(ordersURL(status, pg.CurrentPage-1))
		p.raw(">Previous</a>")
	}
	p.raw("<span>Page ")
	p.textf("%d of %d", pg.CurrentPage, pg.TotalPages)
	p.raw("</span>")
	if pg.HasNextPage {
		p.raw("<a rel=\"next\"")
		p.href(ordersURL(status, pg.CurrentPage+1))
		p.raw(">Next</a>")
	}
	p.raw("</nav>")
}
