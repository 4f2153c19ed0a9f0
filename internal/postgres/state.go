// Package postgres stores visitor snapshots in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dukerupert/britishfloors/internal/storage"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StateStore implements storage.StateStore on the visitor_state table.
type StateStore struct {
	db Querier
}

// Compile-time check that StateStore implements storage.StateStore.
var _ storage.StateStore = (*StateStore)(nil)

func NewStateStore(db Querier) *StateStore {
	return &StateStore{db: db}
}

const (
	loadStateSQL = `SELECT payload FROM visitor_state WHERE session_id = $1 AND key = $2`

	saveStateSQL = `
INSERT INTO visitor_state (session_id, key, payload, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (session_id, key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	deleteStateSQL = `DELETE FROM visitor_state WHERE session_id = $1`

	pruneStateSQL = `DELETE FROM visitor_state WHERE updated_at < $1`
)

// Load returns the snapshot for sessionID/key, or storage.ErrNotFound.
func (s *StateStore) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	if err := storage.ValidateKey(sessionID, key); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.QueryRow(ctx, loadStateSQL, sessionID, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.ErrBackend("load", err)
	}
	return payload, nil
}

// Save upserts the snapshot. The last writer wins.
func (s *StateStore) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	if err := storage.ValidateKey(sessionID, key); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, saveStateSQL, sessionID, key, payload); err != nil {
		return storage.ErrBackend("save", err)
	}
	return nil
}

// Delete removes every snapshot for the session.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	if err := storage.ValidateKey(sessionID, ""); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, deleteStateSQL, sessionID); err != nil {
		return storage.ErrBackend("delete", err)
	}
	return nil
}

// Prune deletes snapshots not written since before cutoff and returns how
// many rows went.
func (s *StateStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, pruneStateSQL, cutoff)
	if err != nil {
		return 0, storage.ErrBackend("prune", err)
	}
	return tag.RowsAffected(), nil
}
