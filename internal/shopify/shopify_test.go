package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
)

type recordedRequest struct {
	Token     string
	Query     string
	Variables map[string]any
}

// newTestClient serves every request with respond and records what was sent.
func newTestClient(t *testing.T, respond func(w http.ResponseWriter, req recordedRequest)) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rec := recordedRequest{
			Token:     r.Header.Get("X-Shopify-Storefront-Access-Token"),
			Query:     body.Query,
			Variables: body.Variables,
		}
		requests = append(requests, rec)
		w.Header().Set("Content-Type", "application/json")
		respond(w, rec)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		StoreDomain:     "british-floors.myshopify.com",
		StorefrontToken: "tok_123",
		Endpoint:        srv.URL,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c, &requests
}

func writeData(w http.ResponseWriter, data string) {
	_, _ = w.Write([]byte(`{"data":` + data + `}`))
}

func TestConfig_IsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"empty", Config{}, false},
		{"placeholder domain", Config{StoreDomain: PlaceholderStoreDomain, StorefrontToken: "real"}, false},
		{"placeholder token", Config{StoreDomain: "shop.myshopify.com", StorefrontToken: PlaceholderToken}, false},
		{"real", Config{StoreDomain: "shop.myshopify.com", StorefrontToken: "real"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsConfigured())
		})
	}
}

func TestConfig_GraphQLURL(t *testing.T) {
	cfg := Config{StoreDomain: "shop.myshopify.com"}
	assert.Equal(t, "https://shop.myshopify.com/api/2024-01/graphql.json", cfg.GraphQLURL())

	cfg.APIVersion = "2024-04"
	assert.Equal(t, "https://shop.myshopify.com/api/2024-04/graphql.json", cfg.GraphQLURL())
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := NewClient(Config{StoreDomain: PlaceholderStoreDomain, StorefrontToken: PlaceholderToken}, zerolog.Nop())
	assert.ErrorIs(t, err, billing.ErrNotConfigured)
}

func TestClient_Do_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
			w.WriteHeader(http.StatusBadGateway)
		})
		err := c.Do(context.Background(), "products", "query{}", nil, nil)
		var te *billing.TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	})

	t.Run("graphql errors", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled"}]}`))
		})
		err := c.Do(context.Background(), "products", "query{}", nil, nil)
		var gqlErrs GraphQLErrors
		require.True(t, errors.As(err, &gqlErrs))
		assert.Equal(t, "graphql: Throttled", gqlErrs.Error())
	})
}

const oakNode = `{
  "id": "gid://shopify/Product/1",
  "handle": "premium-oak",
  "title": "Premium Oak",
  "tags": ["oak"],
  "availableForSale": true,
  "priceRange": {
    "minVariantPrice": {"amount": "149.99", "currencyCode": "GBP"},
    "maxVariantPrice": {"amount": "289.99", "currencyCode": "GBP"}
  },
  "images": {"edges": [{"node": {"url": "https://cdn.shopify.com/oak.jpg", "altText": "Oak"}}]},
  "variants": {"edges": [{"node": {
    "id": "gid://shopify/ProductVariant/11",
    "title": "1.5m²",
    "availableForSale": true,
    "quantityAvailable": null,
    "price": {"amount": "149.99", "currencyCode": "GBP"},
    "compareAtPrice": null,
    "selectedOptions": [{"name": "Pack", "value": "1.5m²"}],
    "image": null
  }}]}
}`

func TestCatalog_ListProducts(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"products":{"edges":[{"node":`+oakNode+`}],
			"pageInfo":{"hasNextPage":true,"hasPreviousPage":false,"startCursor":"a","endCursor":"b"}}}`)
	})

	page, err := NewCatalog(c).ListProducts(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	p := page.Products[0]
	assert.Equal(t, "premium-oak", p.Handle)
	assert.Equal(t, "149.99", p.PriceRange.MinVariantPrice.String())
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "GBP", p.Variants[0].Price.CurrencyCode)
	assert.Nil(t, p.Variants[0].CompareAtPrice)
	assert.Equal(t, "https://cdn.shopify.com/oak.jpg", p.FeaturedImage().URL)
	assert.True(t, page.PageInfo.HasNextPage)
	assert.Equal(t, "b", page.PageInfo.EndCursor)

	require.Len(t, *reqs, 1)
	sent := (*reqs)[0]
	assert.Equal(t, "tok_123", sent.Token)
	assert.EqualValues(t, defaultPageSize, sent.Variables["first"])
	assert.Nil(t, sent.Variables["after"])
}

func TestCatalog_Search_SendsQuery(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"products":{"edges":[],"pageInfo":{"hasNextPage":false,"hasPreviousPage":false}}}`)
	})

	page, err := NewCatalog(c).Search(context.Background(), "oak", 5, "cursor1")
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, "oak", (*reqs)[0].Variables["query"])
	assert.Equal(t, "cursor1", (*reqs)[0].Variables["after"])
}

func TestCatalog_ProductByHandle(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		if req.Variables["handle"] == "premium-oak" {
			writeData(w, `{"product":`+oakNode+`}`)
			return
		}
		writeData(w, `{"product":null}`)
	})
	cat := NewCatalog(c)

	p, err := cat.ProductByHandle(context.Background(), "premium-oak")
	require.NoError(t, err)
	assert.Equal(t, "Premium Oak", p.Title)

	_, err = cat.ProductByHandle(context.Background(), "carpet")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestCatalog_Unavailable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewCatalog(c).ListCollections(context.Background(), 3)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestCatalog_CollectionByHandle(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"collection":{"id":"gid://shopify/Collection/1","handle":"wood","title":"Wood",
			"products":{"edges":[{"node":`+oakNode+`}],"pageInfo":{"hasNextPage":false,"hasPreviousPage":false}}}}`)
	})

	col, err := NewCatalog(c).CollectionByHandle(context.Background(), "wood", 10, "")
	require.NoError(t, err)
	assert.Equal(t, "Wood", col.Title)
	require.Len(t, col.Products, 1)
	assert.Equal(t, "premium-oak", col.Products[0].Handle)
}

func checkoutParams() billing.SessionParams {
	addr := address.Address{
		FirstName: "John", LastName: "Doe", Address1: "123 Main Street",
		City: "London", State: "England", ZipCode: "SW1A 1AA", Country: "United Kingdom",
	}
	return billing.SessionParams{
		Lines: []billing.SessionLine{
			{VariantID: "gid://shopify/ProductVariant/11", Title: "Oak", Quantity: 2, UnitPrice: money.MustParse("50.00", "GBP")},
		},
		Email:           "john@example.com",
		ShippingAddress: addr,
		BillingAddress:  addr,
		PaymentMethod:   "card",
		DiscountCode:    "SAVE10",
	}
}

func TestCheckoutProvider_Success(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"checkoutCreate":{"checkout":{"id":"gid://shopify/Checkout/abc",
			"webUrl":"https://british-floors.myshopify.com/checkouts/abc",
			"totalPrice":{"amount":"100.00","currencyCode":"GBP"}},"checkoutUserErrors":[]}}`)
	})

	s, err := NewCheckoutProvider(c).CreateCheckoutSession(context.Background(), checkoutParams())
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Checkout/abc", s.ID)
	assert.Equal(t, "https://british-floors.myshopify.com/checkouts/abc", s.URL)
	assert.Equal(t, "100.00", s.Total.String())
	assert.False(t, s.IsMock)

	input := (*reqs)[0].Variables["input"].(map[string]any)
	assert.Equal(t, "Payment Method: card | Discount: SAVE10", input["note"])
	assert.Equal(t, "john@example.com", input["email"])
	shipping := input["shippingAddress"].(map[string]any)
	assert.Equal(t, "England", shipping["province"])
	assert.Equal(t, "SW1A 1AA", shipping["zip"])
	lines := input["lineItems"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 2, lines[0].(map[string]any)["quantity"])
	assert.True(t, strings.Contains((*reqs)[0].Query, "checkoutCreate"))
}

func TestCheckoutProvider_UserErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"checkoutCreate":{"checkout":null,"checkoutUserErrors":[
			{"code":"INVALID","field":["input","shippingAddress","zip"],"message":"Zip is not valid for United Kingdom"}]}}`)
	})

	_, err := NewCheckoutProvider(c).CreateCheckoutSession(context.Background(), checkoutParams())
	var ue *billing.UserError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Zip is not valid for United Kingdom", ue.ErrorMessage())
	assert.Equal(t, "input.shippingAddress.zip", ue.Errors[0].Field)
}

func TestCheckoutProvider_MissingURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"checkoutCreate":{"checkout":null,"checkoutUserErrors":[]}}`)
	})

	_, err := NewCheckoutProvider(c).CreateCheckoutSession(context.Background(), checkoutParams())
	var te *billing.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestCustomers_LoginAndLookup(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		switch {
		case strings.Contains(req.Query, "customerAccessTokenCreate"):
			input := req.Variables["input"].(map[string]any)
			if input["password"] != "password123" {
				writeData(w, `{"customerAccessTokenCreate":{"customerAccessToken":null,
					"customerUserErrors":[{"code":"UNIDENTIFIED_CUSTOMER","field":["input"],"message":"Unidentified customer"}]}}`)
				return
			}
			writeData(w, `{"customerAccessTokenCreate":{"customerAccessToken":
				{"accessToken":"cat_1","expiresAt":"2030-01-01T00:00:00Z"},"customerUserErrors":[]}}`)
		case strings.Contains(req.Query, "getCustomer"):
			if req.Variables["customerAccessToken"] != "cat_1" {
				writeData(w, `{"customer":null}`)
				return
			}
			writeData(w, `{"customer":{"id":"gid://shopify/Customer/7","email":"demo@example.com","firstName":"Demo","lastName":"User","phone":null}}`)
		}
	})
	customers := NewCustomers(c)
	ctx := context.Background()

	tok, err := customers.Login(ctx, "demo@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "cat_1", tok.Token)
	assert.Equal(t, 2030, tok.ExpiresAt.Year())

	_, err = customers.Login(ctx, "demo@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	cust, err := customers.Customer(ctx, "cat_1")
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", cust.Email)

	_, err = customers.Customer(ctx, "expired")
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestCustomers_RegisterUserErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeData(w, `{"customerCreate":{"customer":null,"customerUserErrors":[
			{"code":"TAKEN","field":["input","email"],"message":"Email has already been taken"}]}}`)
	})

	_, err := NewCustomers(c).Register(context.Background(), domain.Registration{
		Email: "demo@example.com", Password: "password123", FirstName: "Demo", LastName: "User",
	})
	require.True(t, domain.IsValidationError(err))
	assert.Equal(t, "Email has already been taken", domain.GetValidationFields(err)["email"])
}
