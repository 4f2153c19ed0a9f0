package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/domain"
)

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()
	carts := NewCartService(newTestRegistry(nil), testCatalog(), zerolog.Nop())

	state, err := carts.AddItem(ctx, testSession, "oak", "var-a", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, state.TotalQuantity)
	assert.Equal(t, "oak", state.Items[0].ProductHandle)

	_, err = carts.AddItem(ctx, testSession, "carpet", "var-z", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = carts.AddItem(ctx, testSession, "oak", "var-z", 1)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)

	_, err = carts.AddItem(ctx, testSession, "sold-out", "var-sold", 1)
	assert.ErrorIs(t, err, ErrVariantUnavailable)

	_, err = carts.AddItem(ctx, testSession, "oak", "var-a", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	state, err = carts.Get(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, 2, state.TotalQuantity)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	carts := NewCartService(newTestRegistry(nil), testCatalog(), zerolog.Nop())
	addToCart(t, carts, "oak", 1)
	addToCart(t, carts, "maple", 2)

	state, err := carts.UpdateQuantity(ctx, testSession, "var-a", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, state.TotalQuantity)
	assert.Equal(t, "210.00", state.Subtotal.String())

	state, err = carts.RemoveItem(ctx, testSession, "var-b")
	require.NoError(t, err)
	assert.Len(t, state.Items, 1)

	_, err = carts.ApplyDiscount(ctx, testSession, "welcome20")
	require.NoError(t, err)
	state, err = carts.RemoveDiscount(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, state.DiscountCode)

	state, err = carts.Clear(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.NotNil(t, state.Items)
}

func TestCartService_UnknownDiscountKeepsState(t *testing.T) {
	ctx := context.Background()
	carts := NewCartService(newTestRegistry(nil), testCatalog(), zerolog.Nop())
	addToCart(t, carts, "bamboo", 1)
	before, err := carts.ApplyDiscount(ctx, testSession, "SAVE10")
	require.NoError(t, err)

	state, err := carts.ApplyDiscount(ctx, testSession, "EXPIRED50")
	assert.ErrorIs(t, err, domain.ErrUnknownDiscountCode)
	assert.Equal(t, before, state)
	assert.Equal(t, "20.00", state.DiscountAmount.String())
}

func TestListService_Wishlist(t *testing.T) {
	ctx := context.Background()
	lists := NewListService(newTestRegistry(nil), testCatalog())

	state, err := lists.Add(ctx, testSession, ListWishlist, "oak")
	require.NoError(t, err)
	assert.True(t, state.Added)
	assert.Equal(t, 1, state.Count)
	assert.Zero(t, state.MaxItems)

	state, err = lists.Add(ctx, testSession, ListWishlist, "oak")
	require.NoError(t, err)
	assert.False(t, state.Added)
	assert.Equal(t, 1, state.Count)

	_, err = lists.Add(ctx, testSession, ListWishlist, "carpet")
	assert.ErrorIs(t, err, ErrProductNotFound)

	state, err = lists.Remove(ctx, testSession, ListWishlist, "prod-a")
	require.NoError(t, err)
	assert.Zero(t, state.Count)

	state, err = lists.Remove(ctx, testSession, ListWishlist, "prod-missing")
	require.NoError(t, err)
	assert.Zero(t, state.Count)
}

func TestListService_CompareRejectsFifthProduct(t *testing.T) {
	ctx := context.Background()
	lists := NewListService(newTestRegistry(nil), testCatalog())

	for _, handle := range []string{"oak", "maple", "bamboo", "walnut"} {
		_, err := lists.Add(ctx, testSession, ListCompare, handle)
		require.NoError(t, err)
	}

	state, err := lists.Add(ctx, testSession, ListCompare, "ash")
	assert.ErrorIs(t, err, domain.ErrCompareFull)
	assert.False(t, state.Added)
	assert.Equal(t, 4, state.Count)

	got, err := lists.Get(ctx, testSession, ListCompare)
	require.NoError(t, err)
	ids := make([]string, 0, len(got.Items))
	for _, p := range got.Items {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"prod-a", "prod-b", "prod-c", "prod-d"}, ids)

	// An existing product is still accepted as a no-op when full.
	state, err = lists.Add(ctx, testSession, ListCompare, "oak")
	require.NoError(t, err)
	assert.False(t, state.Added)
}

func TestListService_ListsAreIndependent(t *testing.T) {
	ctx := context.Background()
	lists := NewListService(newTestRegistry(nil), testCatalog())

	_, err := lists.Add(ctx, testSession, ListWishlist, "oak")
	require.NoError(t, err)
	_, err = lists.Add(ctx, testSession, ListCompare, "maple")
	require.NoError(t, err)

	state, err := lists.Clear(ctx, testSession, ListCompare)
	require.NoError(t, err)
	assert.Zero(t, state.Count)

	wish, err := lists.Get(ctx, testSession, ListWishlist)
	require.NoError(t, err)
	assert.Equal(t, 1, wish.Count)
}
