// Package store persists scheduler state in an embedded SQLite database so
// a restart neither re-fires nor skips the day's summary.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

const lastFiredKey = "last_fired_date"

const schema = `
CREATE TABLE IF NOT EXISTS scheduler_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is the durable scheduler state, backed by SQLite.
type Store struct{ db *sql.DB }

// Open opens (or creates) the SQLite database at the given path, applies
// recommended PRAGMAs, and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastFiredDate returns the local calendar date ("2006-01-02") of the last
// successful delivery, or "" if the summary has never fired.
func (s *Store) LastFiredDate(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM scheduler_state WHERE key = ?`, lastFiredKey)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetLastFiredDate records the local calendar date of a successful delivery.
// Called exactly once per delivered summary, immediately after delivery.
func (s *Store) SetLastFiredDate(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduler_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastFiredKey, date)
	return err
}
