package postgres

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/storage"
)

type row struct {
	payload []byte
	err     error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

// fakeDB keeps rows in a map keyed by session and key, enough to exercise the
// store's SQL paths without a server.
type fakeDB struct {
	rows    map[[2]string][]byte
	execErr error
	execs   []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[[2]string][]byte)}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	if db.execErr != nil {
		return pgconn.CommandTag{}, db.execErr
	}
	switch sql {
	case saveStateSQL:
		db.rows[[2]string{args[0].(string), args[1].(string)}] = args[2].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case deleteStateSQL:
		n := 0
		for k := range db.rows {
			if k[0] == args[0].(string) {
				delete(db.rows, k)
				n++
			}
		}
		return pgconn.NewCommandTag("DELETE " + strconv.Itoa(n)), nil
	case pruneStateSQL:
		return pgconn.NewCommandTag("DELETE 3"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	payload, ok := db.rows[[2]string{args[0].(string), args[1].(string)}]
	if !ok {
		return row{err: pgx.ErrNoRows}
	}
	return row{payload: payload}
}

func TestStateStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(newFakeDB())

	_, err := store.Load(ctx, "session-1", "cart")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save(ctx, "session-1", "cart", []byte(`{"items":[]}`)))
	require.NoError(t, store.Save(ctx, "session-1", "cart", []byte(`{"items":[{"variantId":"2001"}]}`)))
	require.NoError(t, store.Save(ctx, "session-1", "wishlist", []byte(`{"items":[]}`)))

	got, err := store.Load(ctx, "session-1", "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"variantId":"2001"}]}`, string(got))

	require.NoError(t, store.Delete(ctx, "session-1"))
	_, err = store.Load(ctx, "session-1", "wishlist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStateStore_RejectsUnsafeKeys(t *testing.T) {
	db := newFakeDB()
	store := NewStateStore(db)

	err := store.Save(context.Background(), "../etc", "cart", []byte(`{}`))
	assert.ErrorIs(t, err, storage.ErrInvalidSessionID)
	assert.Empty(t, db.execs)
}

func TestStateStore_BackendFailure(t *testing.T) {
	db := newFakeDB()
	db.execErr = errors.New("connection refused")
	store := NewStateStore(db)

	err := store.Save(context.Background(), "session-1", "cart", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state backend failure")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStateStore_Prune(t *testing.T) {
	store := NewStateStore(newFakeDB())

	n, err := store.Prune(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
