// Package modelstore records which translation models have been fetched or
// verified, so a language pair is only checked against the engine once.
package modelstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	engine        TEXT NOT NULL,
	source        TEXT NOT NULL,
	target        TEXT NOT NULL,
	model         TEXT NOT NULL,
	downloaded_at INTEGER NOT NULL,
	PRIMARY KEY (engine, source, target)
)`

// Key identifies a language pair model of one engine
type Key struct {
	Engine string
	Source string
	Target string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s>%s", k.Engine, k.Source, k.Target)
}

// Entry is a recorded model
type Entry struct {
	Key
	Model        string
	DownloadedAt time.Time
}

// Store is a sqlite backed model registry
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the default registry location
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "voxlate", "models.db")
}

// Open opens or creates the registry at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create model store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create model store schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Has reports whether a model for key was recorded
func (s *Store) Has(ctx context.Context, key Key) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM models WHERE engine = ? AND source = ? AND target = ?`,
		key.Engine, key.Source, key.Target).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query model %s: %w", key, err)
	}
	return n > 0, nil
}

// Record stores or refreshes the model entry for key
func (s *Store) Record(ctx context.Context, key Key, model string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO models (engine, source, target, model, downloaded_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(engine, source, target) DO UPDATE SET
		   model = excluded.model,
		   downloaded_at = excluded.downloaded_at`,
		key.Engine, key.Source, key.Target, model, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record model %s: %w", key, err)
	}
	return nil
}

// RemoveTarget deletes all entries for a target language and returns how
// many were removed
func (s *Store) RemoveTarget(ctx context.Context, target string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE target = ?`, target)
	if err != nil {
		return 0, fmt.Errorf("failed to remove models for %s: %w", target, err)
	}
	return res.RowsAffected()
}

// List returns all entries ordered by engine and target
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT engine, source, target, model, downloaded_at FROM models ORDER BY engine, target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.Engine, &e.Source, &e.Target, &e.Model, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		e.DownloadedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
