package shopify

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/money"
)

const checkoutCreateMutation = `
mutation checkoutCreate($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {
    checkout {
      id
      webUrl
      totalPrice { amount currencyCode }
    }
    checkoutUserErrors { code field message }
  }
}`

// CheckoutProvider implements billing.CheckoutProvider with checkoutCreate.
// Shopify computes its own totals from the line items; the storefront's
// breakdown is recorded only through the note.
type CheckoutProvider struct {
	client *Client
}

func NewCheckoutProvider(client *Client) *CheckoutProvider {
	return &CheckoutProvider{client: client}
}

func (p *CheckoutProvider) Name() string { return "shopify" }

type lineItemInput struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type mailingAddressInput struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func toMailingAddress(a address.Address) mailingAddressInput {
	return mailingAddressInput{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		Province:  a.State,
		Zip:       a.ZipCode,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}

type checkoutCreateInput struct {
	Email           string              `json:"email,omitempty"`
	LineItems       []lineItemInput     `json:"lineItems"`
	ShippingAddress mailingAddressInput `json:"shippingAddress"`
	BillingAddress  mailingAddressInput `json:"billingAddress"`
	Note            string              `json:"note"`
}

type userError struct {
	Code    string   `json:"code"`
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (p *CheckoutProvider) CreateCheckoutSession(ctx context.Context, params billing.SessionParams) (*billing.Session, error) {
	if len(params.Lines) == 0 {
		return nil, billing.ErrNoLines
	}

	input := checkoutCreateInput{
		Email:           params.Email,
		ShippingAddress: toMailingAddress(params.ShippingAddress),
		BillingAddress:  toMailingAddress(params.BillingAddress),
		Note:            params.Note(),
	}
	for _, line := range params.Lines {
		input.LineItems = append(input.LineItems, lineItemInput{VariantID: line.VariantID, Quantity: line.Quantity})
	}

	var data struct {
		CheckoutCreate struct {
			Checkout *struct {
				ID         string      `json:"id"`
				WebURL     string      `json:"webUrl"`
				TotalPrice money.Money `json:"totalPrice"`
			} `json:"checkout"`
			UserErrors []userError `json:"checkoutUserErrors"`
		} `json:"checkoutCreate"`
	}
	if err := p.client.Do(ctx, "checkoutCreate", checkoutCreateMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}

	result := data.CheckoutCreate
	if len(result.UserErrors) > 0 {
		ue := &billing.UserError{}
		for _, e := range result.UserErrors {
			ue.Errors = append(ue.Errors, billing.FieldError{
				Code:    e.Code,
				Field:   strings.Join(e.Field, "."),
				Message: e.Message,
			})
		}
		return nil, ue
	}
	if result.Checkout == nil || result.Checkout.WebURL == "" {
		return nil, &billing.TransportError{Provider: "shopify", Err: errors.New("checkoutCreate returned no checkout URL")}
	}

	return &billing.Session{
		ID:    result.Checkout.ID,
		URL:   result.Checkout.WebURL,
		Total: result.Checkout.TotalPrice,
	}, nil
}
