package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	_ "modernc.org/sqlite"
)

// Default store configuration constants.
const (
	defaultBusyTimeoutMS = 5000
	timeLayout           = time.RFC3339Nano
)

// SQLiteStore implements Store backed by a SQLite database file.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	busyTimeout int
	collator    *collate.Collator
}

// Open initializes or connects to the store database and applies migrations.
// An empty path opens an in-memory database, which tests rely on.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	s := &SQLiteStore{
		path:        dsn,
		busyTimeout: defaultBusyTimeoutMS,
		// Roster listings are name-ordered the way a Brazilian team reads
		// them: case- and accent-insensitive.
		collator: collate.New(language.BrazilianPortuguese, collate.Loose),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout),
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s.db = db
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			secret TEXT NOT NULL,
			online INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			permitted TEXT NOT NULL DEFAULT '[]',
			completed_today INTEGER NOT NULL DEFAULT 0,
			last_assigned_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS assignments (
			case_id TEXT PRIMARY KEY,
			worker_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			category_label TEXT NOT NULL,
			client TEXT NOT NULL DEFAULT '',
			project TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			assigned_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id TEXT NOT NULL,
			worker_id INTEGER NOT NULL,
			worker_name TEXT NOT NULL DEFAULT '',
			client TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			closed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_worker ON assignments(worker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_worker_closed ON history(worker_id, closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_case ON history(case_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp, tolerating the zero string.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// nullableTime converts an optional timestamp for storage.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
