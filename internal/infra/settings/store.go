// Package settings provides the sqlite-backed settings store.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// Store is a key/value settings store persisted in sqlite. Values are stored
// as JSON-encoded text.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at the given path and runs the schema
// migration. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open settings db")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping settings db")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return nil, errors.Wrap(err, "failed to migrate settings schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw JSON value for a key. The second return value reports
// whether the key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to load setting %q", key)
	}
	return value, true, nil
}

// Save upserts the raw JSON value for a key.
func (s *Store) Save(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed to save setting %q", key)
	}
	return nil
}

// GetStringList returns the string-list value for a key. A missing key yields
// an empty list.
func (s *Store) GetStringList(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errors.Wrapf(err, "setting %q is not a string list", key)
	}
	return values, nil
}

// SaveStringList persists a string-list value for a key.
func (s *Store) SaveStringList(ctx context.Context, key string, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return errors.Wrapf(err, "failed to encode setting %q", key)
	}
	return s.Save(ctx, key, string(raw))
}
