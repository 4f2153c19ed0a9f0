package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileStore implements StateStore on the local filesystem, one JSON file per
// document at <dir>/<sessionID>/<key>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./data/state"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sessionID, key string) string {
	return filepath.Join(s.dir, sessionID, key+".json")
}

// Load reads a snapshot file.
func (s *FileStore) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	if err := ValidateKey(sessionID, key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(sessionID, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ErrBackend("read", err)
	}
	return data, nil
}

// Save writes a snapshot via rename so readers never see a torn file.
func (s *FileStore) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	if err := ValidateKey(sessionID, key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.dir, sessionID), 0o755); err != nil {
		return ErrBackend("mkdir", err)
	}
	if err := atomic.WriteFile(s.path(sessionID, key), bytes.NewReader(payload)); err != nil {
		return ErrBackend("write", err)
	}
	return nil
}

// Delete removes the session directory.
func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	if err := ValidateKey(sessionID, ""); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.dir, sessionID)); err != nil {
		return ErrBackend("delete", err)
	}
	return nil
}
