package storage

import (
	"context"
	"regexp"
)

// StateStore persists per-visitor snapshots (cart, wishlist, compare) as
// opaque JSON documents. Writes are last-write-wins; there is no versioning.
type StateStore interface {
	// Load returns the document stored under sessionID/key.
	// Returns ErrNotFound if nothing has been saved yet.
	Load(ctx context.Context, sessionID, key string) ([]byte, error)

	// Save replaces the document stored under sessionID/key.
	Save(ctx context.Context, sessionID, key string, payload []byte) error

	// Delete removes every document for a session.
	// Returns nil if the session has no documents (idempotent).
	Delete(ctx context.Context, sessionID string) error
}

// Config selects and configures a StateStore backend.
type Config struct {
	// Backend is "file" (default), "r2" or "memory". Postgres is wired
	// separately because it owns a connection pool.
	Backend string

	// Dir is the root directory for the file backend.
	Dir string

	R2AccountID   string
	R2AccessKeyID string
	R2SecretKey   string
	R2BucketName  string
	R2Prefix      string
}

// NewStateStore creates a StateStore implementation based on configuration.
func NewStateStore(cfg Config) (StateStore, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(cfg.Dir)
	case "memory":
		return NewMemoryStore(), nil
	case "r2":
		return NewR2Store(R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
			Prefix:      cfg.R2Prefix,
		})
	default:
		return nil, ErrUnknownBackend(cfg.Backend)
	}
}

var safeName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateKey rejects session IDs and keys that are unsafe as path or object
// name components.
func ValidateKey(sessionID, key string) error {
	if !safeName.MatchString(sessionID) {
		return ErrInvalidSessionID
	}
	if key != "" && !safeName.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
