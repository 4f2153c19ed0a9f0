package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
	"github.com/dukerupert/britishfloors/internal/storage"
)

const testSession = "visitor-1"

func gbp(amount string) money.Money {
	return money.MustParse(amount, money.DefaultCurrency)
}

// testProduct returns a product with one available variant.
func testProduct(id, handle, price string) catalog.Product {
	v := catalog.Variant{
		ID:               "var-" + id,
		Title:            "Pack",
		Price:            gbp(price),
		AvailableForSale: true,
	}
	return catalog.Product{
		ID:               "prod-" + id,
		Handle:           handle,
		Title:            "Product " + id,
		AvailableForSale: true,
		PriceRange:       catalog.PriceRange{MinVariantPrice: v.Price, MaxVariantPrice: v.Price},
		Images:           []catalog.Image{{URL: "/img/" + handle + ".jpg"}},
		Variants:         []catalog.Variant{v},
	}
}

func testCatalog() *catalog.StaticCatalog {
	sold := testProduct("sold", "sold-out", "20.00")
	sold.Variants[0].AvailableForSale = false
	return catalog.NewStaticCatalogWith(
		testProduct("a", "oak", "50.00"),
		testProduct("b", "maple", "30.00"),
		testProduct("c", "bamboo", "200.00"),
		testProduct("d", "walnut", "80.00"),
		testProduct("e", "ash", "100.00"),
		sold,
	)
}

func newTestRegistry(store storage.StateStore) *SessionRegistry {
	return NewSessionRegistry(store, RegistryConfig{Currency: "GBP"}, zerolog.Nop())
}

func ukAddress() address.Address {
	return address.Address{
		FirstName: "John",
		LastName:  "Doe",
		Address1:  "123 Main Street",
		City:      "London",
		ZipCode:   "SW1A 1AA",
		Country:   "United Kingdom",
	}
}

func checkoutRequest() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Email:           "john@example.com",
		ShippingAddress: ukAddress(),
		SameAsShipping:  true,
		PaymentMethod:   domain.PaymentMethodCard,
	}
}

// addToCart adds items through the cart service and fails the test on error.
func addToCart(t *testing.T, carts *CartService, handle string, qty int) domain.CartState {
	t.Helper()
	p, err := testCatalog().ProductByHandle(context.Background(), handle)
	require.NoError(t, err)
	state, err := carts.AddItem(context.Background(), testSession, handle, p.Variants[0].ID, qty)
	require.NoError(t, err)
	return state
}
