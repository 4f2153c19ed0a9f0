package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/storage"
)

func TestGenerateSessionID(t *testing.T) {
	a, err := GenerateSessionID()
	require.NoError(t, err)
	b, err := GenerateSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NoError(t, storage.ValidateKey(a, ""))
}

func TestSessionRegistry_RehydratesFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	cat := testCatalog()

	first := newTestRegistry(store)
	carts := NewCartService(first, cat, zerolog.Nop())
	lists := NewListService(first, cat)

	addToCart(t, carts, "oak", 2)
	_, err := carts.ApplyDiscount(ctx, testSession, "SAVE10")
	require.NoError(t, err)
	_, err = lists.Add(ctx, testSession, ListWishlist, "maple")
	require.NoError(t, err)
	_, err = lists.Add(ctx, testSession, ListCompare, "bamboo")
	require.NoError(t, err)

	// A second registry over the same store simulates a restart.
	second := newTestRegistry(store)
	state, err := NewCartService(second, cat, zerolog.Nop()).Get(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.TotalQuantity)
	assert.Equal(t, "100.00", state.Subtotal.String())
	assert.Empty(t, state.DiscountCode, "discounts are not persisted")
	assert.Equal(t, "100.00", state.Total.String())

	lists2 := NewListService(second, cat)
	wish, err := lists2.Get(ctx, testSession, ListWishlist)
	require.NoError(t, err)
	assert.Equal(t, 1, wish.Count)
	cmp, err := lists2.Get(ctx, testSession, ListCompare)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp.Count)
	assert.Equal(t, CompareMaxItems, cmp.MaxItems)
}

func TestSessionRegistry_IgnoresPersistedTotals(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	payload := []byte(`{"items":[{"id":"prod-a-var-a","productId":"prod-a","variantId":"var-a","title":"Oak",
		"price":{"amount":"50.00","currencyCode":"GBP"},"quantity":3}],
		"totalQuantity":99,"subtotal":{"amount":"1.00","currencyCode":"GBP"}}`)
	require.NoError(t, store.Save(ctx, testSession, cartStateKey, payload))

	carts := NewCartService(newTestRegistry(store), testCatalog(), zerolog.Nop())
	state, err := carts.Get(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, 3, state.TotalQuantity)
	assert.Equal(t, "150.00", state.Subtotal.String())
}

func TestSessionRegistry_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(ctx, testSession, cartStateKey, []byte("{not json")))

	carts := NewCartService(newTestRegistry(store), testCatalog(), zerolog.Nop())
	state, err := carts.Get(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
}

func TestSessionRegistry_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	cat := testCatalog()

	// Two processes share one store; each holds its own copy in memory.
	tabA := NewCartService(newTestRegistry(store), cat, zerolog.Nop())
	tabB := NewCartService(newTestRegistry(store), cat, zerolog.Nop())
	_, err := tabA.Get(ctx, testSession)
	require.NoError(t, err)
	_, err = tabB.Get(ctx, testSession)
	require.NoError(t, err)

	_, err = tabA.AddItem(ctx, testSession, "oak", "var-a", 1)
	require.NoError(t, err)
	_, err = tabB.AddItem(ctx, testSession, "maple", "var-b", 4)
	require.NoError(t, err)

	fresh := NewCartService(newTestRegistry(store), cat, zerolog.Nop())
	state, err := fresh.Get(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "var-b", state.Items[0].VariantID)
}

func TestSessionRegistry_IsolatesVisitors(t *testing.T) {
	ctx := context.Background()
	carts := NewCartService(newTestRegistry(nil), testCatalog(), zerolog.Nop())

	_, err := carts.AddItem(ctx, "visitor-a", "oak", "var-a", 1)
	require.NoError(t, err)

	other, err := carts.Get(ctx, "visitor-b")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestSessionRegistry_RejectsInvalidSessionID(t *testing.T) {
	r := newTestRegistry(nil)
	err := r.View(context.Background(), "../etc/passwd", func(v *Visitor) error { return nil })
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestSessionRegistry_UpdateErrorSkipsPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newTestRegistry(store)

	boom := errors.New("boom")
	err := r.Update(ctx, testSession, func(v *Visitor) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = store.Load(ctx, testSession, cartStateKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionRegistry_EvictKeepsState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newTestRegistry(store)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	carts := NewCartService(r, testCatalog(), zerolog.Nop())
	addToCart(t, carts, "oak", 1)
	require.Equal(t, 1, r.Len())

	assert.Equal(t, 0, r.Evict(time.Hour))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, r.Evict(time.Hour))
	assert.Equal(t, 0, r.Len())

	state, err := carts.Get(ctx, testSession)
	require.NoError(t, err)
	assert.Len(t, state.Items, 1)
}

func TestSessionRegistry_Forget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newTestRegistry(store)
	carts := NewCartService(r, testCatalog(), zerolog.Nop())
	addToCart(t, carts, "oak", 1)

	require.NoError(t, r.Forget(ctx, testSession))
	assert.Equal(t, 0, r.Len())

	state, err := carts.Get(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
}
