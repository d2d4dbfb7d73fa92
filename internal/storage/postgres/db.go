// Package postgres is the PostgreSQL storage backend. Nested collections
// (entry formats, task steps) live in JSONB columns; top-level entities get
// their own tables. This backend implements the optional migration
// capability.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/storage"
)

// Store is the PostgreSQL-backed persistence layer.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.TaskMigrator = (*Store)(nil)
	_ storage.Pinger       = (*Store)(nil)
)

// Open connects to PostgreSQL, verifies the connection, and ensures the
// schema exists.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database_connected")
	return s, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			hashtags JSONB NOT NULL DEFAULT '[]',
			urgency TEXT NOT NULL DEFAULT 'none',
			importance INTEGER NOT NULL DEFAULT 0,
			primary_format TEXT NOT NULL DEFAULT 'note',
			created_at TIMESTAMPTZ NOT NULL,
			last_modified TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			formats JSONB NOT NULL DEFAULT '["note"]',
			data JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			edited_at TIMESTAMPTZ,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_note_id ON entries(note_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			steps JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_note_id ON tasks(note_id)`,
		`CREATE TABLE IF NOT EXISTS standalone_tasks (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			due_date TIMESTAMPTZ,
			reminder_time TIMESTAMPTZ,
			urgency TEXT NOT NULL DEFAULT 'none',
			importance INTEGER NOT NULL DEFAULT 0,
			steps JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL,
			last_edited_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_auto_generated BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_name_lower ON folders(LOWER(name))`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
