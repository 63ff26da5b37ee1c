// Package store owns the local SQLite database that backs every offline
// collection. All dependent components receive the database handle from
// here; if the store cannot be opened nothing in the subsystem can run.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnavailable indicates the local database failed to open. This is
// fatal: every offline-capable feature depends on the store.
var ErrUnavailable = errors.New("local store unavailable")

// Collection names exposed by the store
const (
	CollectionLessons  = "lessons"
	CollectionCourses  = "courses"
	CollectionProgress = "progress"
	CollectionQueue    = "queue"
	CollectionCache    = "cache"
)

var collectionTables = map[string]string{
	CollectionLessons:  "lessons",
	CollectionCourses:  "courses",
	CollectionProgress: "progress",
	CollectionQueue:    "queue",
	CollectionCache:    "cache",
}

// Store is the schema-versioned local database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local database at path and applies
// pending schema migrations. Any failure is reported as ErrUnavailable.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: store path is required", ErrUnavailable)
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrUnavailable, err)
	}

	// modernc sqlite serializes writes per connection; a single
	// connection keeps local writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrUnavailable, err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database handle for repositories
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Clear removes every record from the named collections in one
// transaction. Unknown collection names are rejected.
func (s *Store) Clear(ctx context.Context, collections ...string) error {
	tables := make([]string, 0, len(collections))
	for _, c := range collections {
		table, ok := collectionTables[c]
		if !ok {
			return fmt.Errorf("unknown collection: %s", c)
		}
		tables = append(tables, table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// runMigrations applies embedded schema migrations
func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{
		MigrationsTable: "offline_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
