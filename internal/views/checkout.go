package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/dukerupert/britishfloors/internal/domain"
)

// CheckoutSuccess is shown when the customer returns from the hosted checkout
// or completes a local order.
func CheckoutSuccess(conf domain.Confirmation) templ.Component {
	return Layout("Order confirmed", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw("<section class=\"checkout-success\"><h1>Thank you for your order</h1>")
		if conf.OrderID != "" {
			p.raw("<p class=\"order-id\">Order reference: <strong>")
			p.text(conf.OrderID)
			p.raw("</strong></p>")
		}
		if conf.IsMock {
			p.raw("<p class=\"notice\">This was a demonstration order. No payment has been taken.</p>")
		} else {
			p.raw("<p>A confirmation email is on its way.</p>")
		}

		if t := conf.Total; t != nil {
			p.raw("<table class=\"order-summary\"><tbody>")
			summaryRow(p, "Subtotal", price(t.Subtotal))
			if !t.Discount.IsZero() {
				summaryRow(p, "Discount", "-"+price(t.Discount))
			}
			shipping := "Free"
			if !t.Shipping.IsZero() {
				shipping = price(t.Shipping)
			}
			summaryRow(p, "Shipping", shipping)
			summaryRow(p, "VAT (20%)", price(t.Tax))
			p.raw("</tbody><tfoot>")
			summaryRow(p, "Total", price(t.Total))
			p.raw("</tfoot></table>")
		}

		p.raw("<div class=\"actions\"><a class=\"button\" href=\"/products\">Continue shopping</a>")
		p.raw("<a class=\"button secondary\" href=\"/account/orders\">View your orders</a></div></section>")
		return p.err
	}))
}

func summaryRow(p *page, label, value string) {
	p.raw("<tr><th scope=\"row\">")
	p.text(label)
	p.raw("</th><td>")
	p.text(value)
	p.raw("</td></tr>")
}
