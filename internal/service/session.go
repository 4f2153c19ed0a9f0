package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/storage"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// Snapshot keys in the state store.
const (
	cartStateKey     = "cart"
	wishlistStateKey = "wishlist"
	compareStateKey  = "compare"
)

// GenerateSessionID generates a cryptographically secure session ID.
// Uses 32 bytes of random data encoded as unpadded base64 URL-safe string.
func GenerateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Visitor is the server-side state of one browser session.
type Visitor struct {
	ID       string
	Cart     *Cart
	Wishlist *Wishlist
	Compare  *Compare

	// CustomerToken is the commerce platform access token after login.
	// It is held in memory only.
	CustomerToken string

	// Pending is the last checkout session created for this visitor,
	// cleared on confirmation. Held in memory only.
	Pending *PendingCheckout

	mu       sync.Mutex
	loaded   bool
	lastSeen time.Time
}

// PendingCheckout records a submitted checkout awaiting confirmation.
type PendingCheckout struct {
	CheckoutID string
	Provider   string
	IsMock     bool
	Total      domain.OrderTotal
}

// SessionRegistry owns every visitor's stores. Operations on one visitor are
// serialised by a per-visitor mutex; different visitors never contend.
// Snapshots are written through to the state store after each mutation.
type SessionRegistry struct {
	store     storage.StateStore
	currency  string
	discounts DiscountTable
	logger    zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	visitors map[string]*Visitor
}

// RegistryConfig configures new carts created by the registry.
type RegistryConfig struct {
	Currency  string
	Discounts DiscountTable
}

func NewSessionRegistry(store storage.StateStore, cfg RegistryConfig, logger zerolog.Logger) *SessionRegistry {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if cfg.Discounts == nil {
		cfg.Discounts = DefaultDiscounts()
	}
	return &SessionRegistry{
		store:     store,
		currency:  cfg.Currency,
		discounts: cfg.Discounts,
		logger:    logger.With().Str("service", "sessions").Logger(),
		now:       time.Now,
		visitors:  make(map[string]*Visitor),
	}
}

// View runs fn with the visitor locked. Nothing is persisted.
func (r *SessionRegistry) View(ctx context.Context, sessionID string, fn func(v *Visitor) error) error {
	v, err := r.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer v.mu.Unlock()
	return fn(v)
}

// Update runs fn with the visitor locked and, if fn succeeds, writes every
// store's snapshot through to the state store. A failed write is logged and
// counted; the in-memory state remains authoritative for this process.
func (r *SessionRegistry) Update(ctx context.Context, sessionID string, fn func(v *Visitor) error) error {
	v, err := r.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer v.mu.Unlock()

	if err := fn(v); err != nil {
		return err
	}
	r.persist(ctx, v)
	return nil
}

// Forget drops a visitor from memory and deletes its persisted state.
func (r *SessionRegistry) Forget(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.visitors, sessionID)
	n := len(r.visitors)
	r.mu.Unlock()
	r.reportActive(n)

	if err := r.store.Delete(ctx, sessionID); err != nil {
		return domain.Internal(err, "sessions.forget", "failed to delete visitor state")
	}
	return nil
}

// Evict removes visitors idle for longer than idle from memory. Their
// snapshots remain in the state store and are rehydrated on the next request.
func (r *SessionRegistry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	evicted := 0
	for id, v := range r.visitors {
		if !v.mu.TryLock() {
			continue
		}
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, id)
			evicted++
		}
		v.mu.Unlock()
	}
	n := len(r.visitors)
	r.mu.Unlock()

	r.reportActive(n)
	if evicted > 0 {
		r.logger.Debug().Int("evicted", evicted).Int("active", n).Msg("evicted idle sessions")
	}
	return evicted
}

// Len returns the number of visitors held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// acquire returns the visitor locked, loading its snapshots on first use.
func (r *SessionRegistry) acquire(ctx context.Context, sessionID string) (*Visitor, error) {
	if err := storage.ValidateKey(sessionID, ""); err != nil {
		return nil, domain.Invalid("sessions.acquire", "invalid session")
	}

	var v *Visitor
	for {
		r.mu.Lock()
		existing, ok := r.visitors[sessionID]
		if !ok {
			existing = &Visitor{ID: sessionID}
			r.visitors[sessionID] = existing
		}
		n := len(r.visitors)
		r.mu.Unlock()
		if !ok {
			r.reportActive(n)
		}

		existing.mu.Lock()
		// Evict may have dropped the visitor between the map read and the lock.
		r.mu.Lock()
		current := r.visitors[sessionID]
		r.mu.Unlock()
		if current == existing {
			v = existing
			break
		}
		existing.mu.Unlock()
	}

	if !v.loaded {
		if err := r.load(ctx, v); err != nil {
			v.mu.Unlock()
			return nil, err
		}
		v.loaded = true
	}
	v.lastSeen = r.now()
	return v, nil
}

// load rehydrates a visitor. Derived totals are always recomputed.
func (r *SessionRegistry) load(ctx context.Context, v *Visitor) error {
	var cartSnap domain.CartSnapshot
	if err := r.loadSnapshot(ctx, v.ID, cartStateKey, &cartSnap); err != nil {
		return err
	}
	v.Cart = RestoreCart(r.currency, r.discounts, cartSnap)

	var wishSnap ProductListSnapshot
	if err := r.loadSnapshot(ctx, v.ID, wishlistStateKey, &wishSnap); err != nil {
		return err
	}
	v.Wishlist = NewWishlist()
	v.Wishlist.set.restore(wishSnap)

	var compareSnap ProductListSnapshot
	if err := r.loadSnapshot(ctx, v.ID, compareStateKey, &compareSnap); err != nil {
		return err
	}
	v.Compare = NewCompare()
	v.Compare.set.restore(compareSnap)
	return nil
}

// loadSnapshot leaves dst untouched when nothing is stored or the stored
// document is corrupt; a corrupt snapshot is logged and treated as empty.
func (r *SessionRegistry) loadSnapshot(ctx context.Context, sessionID, key string, dst any) error {
	data, err := r.store.Load(ctx, sessionID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return domain.Internal(err, "sessions.load", fmt.Sprintf("failed to load %s", key))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable snapshot")
	}
	return nil
}

func (r *SessionRegistry) persist(ctx context.Context, v *Visitor) {
	snapshots := []struct {
		key  string
		data any
	}{
		{cartStateKey, v.Cart.Snapshot()},
		{wishlistStateKey, v.Wishlist.Snapshot()},
		{compareStateKey, v.Compare.Snapshot()},
	}
	for _, s := range snapshots {
		payload, err := json.Marshal(s.data)
		if err == nil {
			err = r.store.Save(ctx, v.ID, s.key, payload)
		}
		if err != nil {
			r.logger.Error().Err(err).Str("key", s.key).Msg("failed to persist visitor state")
			if telemetry.Business != nil {
				telemetry.Business.StatePersistFailures.WithLabelValues(s.key).Inc()
			}
		}
	}
}

func (r *SessionRegistry) reportActive(n int) {
	if telemetry.Business != nil {
		telemetry.Business.ActiveSessions.Set(float64(n))
	}
}
