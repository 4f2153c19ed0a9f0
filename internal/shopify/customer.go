package shopify

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/britishfloors/internal/domain"
)

const (
	customerAccessTokenCreateMutation = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { code field message }
  }
}`

	customerCreateMutation = `
mutation customerCreate($input: CustomerCreateInput!) {
  customerCreate(input: $input) {
    customer { id email firstName lastName phone }
    customerUserErrors { code field message }
  }
}`

	customerQuery = `
query getCustomer($customerAccessToken: String!) {
  customer(customerAccessToken: $customerAccessToken) { id email firstName lastName phone }
}`

	customerAccessTokenDeleteMutation = `
mutation customerAccessTokenDelete($customerAccessToken: String!) {
  customerAccessTokenDelete(customerAccessToken: $customerAccessToken) {
    deletedAccessToken
    userErrors { field message }
  }
}`
)

// Customers implements domain.IdentityProvider with Storefront customer
// access tokens.
type Customers struct {
	client *Client
}

func NewCustomers(client *Client) *Customers {
	return &Customers{client: client}
}

func (c *Customers) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	const op = "shopify.customers.login"

	var data struct {
		Result struct {
			Token *struct {
				AccessToken string    `json:"accessToken"`
				ExpiresAt   time.Time `json:"expiresAt"`
			} `json:"customerAccessToken"`
			UserErrors []userError `json:"customerUserErrors"`
		} `json:"customerAccessTokenCreate"`
	}
	vars := map[string]any{"input": map[string]string{"email": email, "password": password}}
	if err := c.client.Do(ctx, "customerAccessTokenCreate", customerAccessTokenCreateMutation, vars, &data); err != nil {
		return nil, domain.Unavailable(err, op, "Sign in is temporarily unavailable")
	}
	if len(data.Result.UserErrors) > 0 || data.Result.Token == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.AccessToken{
		Token:     data.Result.Token.AccessToken,
		ExpiresAt: data.Result.Token.ExpiresAt,
	}, nil
}

func (c *Customers) Register(ctx context.Context, reg domain.Registration) (*domain.Customer, error) {
	const op = "shopify.customers.register"

	var data struct {
		Result struct {
			Customer   *domain.Customer `json:"customer"`
			UserErrors []userError      `json:"customerUserErrors"`
		} `json:"customerCreate"`
	}
	input := map[string]any{
		"email":     reg.Email,
		"password":  reg.Password,
		"firstName": reg.FirstName,
		"lastName":  reg.LastName,
	}
	if reg.Phone != "" {
		input["phone"] = reg.Phone
	}
	if err := c.client.Do(ctx, "customerCreate", customerCreateMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, domain.Unavailable(err, op, "Registration is temporarily unavailable")
	}
	if len(data.Result.UserErrors) > 0 {
		var verr error
		for _, ue := range data.Result.UserErrors {
			field := "email"
			if len(ue.Field) > 0 {
				field = ue.Field[len(ue.Field)-1]
			}
			verr = domain.AddFieldError(verr, field, ue.Message)
		}
		var ve *domain.ValidationError
		if errors.As(verr, &ve) {
			ve.Op = op
		}
		return nil, verr
	}
	if data.Result.Customer == nil {
		return nil, domain.Internal(nil, op, "Registration failed")
	}
	return data.Result.Customer, nil
}

func (c *Customers) Customer(ctx context.Context, token string) (*domain.Customer, error) {
	if token == "" {
		return nil, domain.ErrNotLoggedIn
	}
	var data struct {
		Customer *domain.Customer `json:"customer"`
	}
	if err := c.client.Do(ctx, "customer", customerQuery, map[string]any{"customerAccessToken": token}, &data); err != nil {
		return nil, domain.Unavailable(err, "shopify.customers.customer", "Account is temporarily unavailable")
	}
	if data.Customer == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return data.Customer, nil
}

func (c *Customers) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := c.client.Do(ctx, "customerAccessTokenDelete", customerAccessTokenDeleteMutation, map[string]any{"customerAccessToken": token}, nil)
	if err != nil {
		return domain.Unavailable(err, "shopify.customers.logout", "Sign out failed")
	}
	return nil
}
