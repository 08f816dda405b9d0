// Package sqlite implements the durable storage layer: one partition
// database per principal and a single shared sync operation queue, both
// backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/fieldside/rostervault/pkg/types"
)

//go:embed kv_schema.sql
var kvSchemaSQL string

// Store is one principal's partition database: a durable key/value table
// holding JSON values under namespace-scoped keys.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// openStore opens (creating if needed) the partition database at path and
// applies the schema.
func openStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open partition: %w", err)
	}
	if _, err := db.Exec(kvSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply partition schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Open opens a standalone store database outside the manager's lifecycle,
// such as the pre-partitioning legacy store read during migration.
func Open(path string) (*Store, error) {
	return openStore(path)
}

// Path returns the partition database file path.
func (s *Store) Path() string {
	return s.path
}

// Get retrieves the value stored under key.
// Returns ErrNotFound if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStorageUnavailable
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStorageUnavailable
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes the value stored under key. Removing a missing key is not
// an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStorageUnavailable
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys returns every key starting with prefix, in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStorageUnavailable
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE key LIKE ? || '%' ORDER BY key", prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ClearPrefix deletes every key starting with prefix and returns the number
// of keys removed.
func (s *Store) ClearPrefix(ctx context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, types.ErrStorageUnavailable
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key LIKE ? || '%'", prefix)
	if err != nil {
		return 0, fmt.Errorf("clear prefix %q: %w", prefix, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SwapPrefix atomically replaces all keys under toPrefix with the keys
// under fromPrefix, rewriting each key's prefix. Both the deletion of the
// old keys and the rename of the new keys happen in one transaction, so a
// failure at any point leaves the database unchanged.
func (s *Store) SwapPrefix(ctx context.Context, fromPrefix, toPrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStorageUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key LIKE ? || '%'", toPrefix); err != nil {
		return fmt.Errorf("swap: clear target prefix: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE kv SET key = ? || substr(key, ?) WHERE key LIKE ? || '%'",
		toPrefix, len(fromPrefix)+1, fromPrefix); err != nil {
		return fmt.Errorf("swap: rename keys: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}

// SizeBytes returns the partition database file size, used by the quota
// pre-check. Best effort: a stat failure reports zero.
func (s *Store) SizeBytes() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Close releases the underlying database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close partition: %w", err)
	}
	return nil
}
