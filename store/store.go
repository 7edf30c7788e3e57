// Package store provides the SQLite-backed key-value store behind project
// state and the db_get tool.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// KV is one key-value pair returned by prefix scans.
type KV struct {
	Key   string
	Value string
}

// DB is a key-value store backed by a SQLite database file. It is safe for
// concurrent use. Use ":memory:" as the path for an in-memory store.
type DB struct {
	db *sql.DB

	migrated sync.Once
}

// Open opens (creating if necessary) the store at the given path and ensures
// the schema exists.
func Open(path string) (*DB, error) {
	connStr := path + "?cache=shared"
	if path == ":memory:" {
		connStr = path + "?cache=shared&mode=memory"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) migrate() error {
	var migrateErr error
	s.migrated.Do(func() {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			migrateErr = fmt.Errorf("store: enable WAL: %w", err)
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );
        `
		if _, err := s.db.Exec(query); err != nil {
			migrateErr = fmt.Errorf("store: migrate: %w", err)
		}
	})
	return migrateErr
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Get returns the value for key. The second return is false when the key does
// not exist.
func (s *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any existing value.
func (s *DB) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
    `, key, value)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. It reports whether a row was deleted.
func (s *DB) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("store: delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete %s: %w", key, err)
	}
	return n > 0, nil
}

// AllByPrefix returns every pair whose key starts with prefix, ordered by key.
func (s *DB) AllByPrefix(ctx context.Context, prefix string) ([]KV, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM kv WHERE key LIKE ? || '%' ORDER BY key", prefix)
	if err != nil {
		return nil, fmt.Errorf("store: scan prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var out []KV
	for rows.Next() {
		var kv KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("store: scan prefix %s: %w", prefix, err)
		}
		out = append(out, kv)
	}
	return out, rows.Err()
}
