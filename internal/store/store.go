package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (progress + content tables only)
// 1 - Added reading_history table
// 2 - Added idx_reading_history_identity index
// 3 - Relaxed progress position CHECKs to allow the 0/0 sentinel
const currentSchemaVersion = 3

// ErrStorageUnavailable reports that the on-device database cannot be
// reached (file not writable, quota exceeded, storage disabled).
// Callers must treat it as "operate without persistence for this
// session", never as a crash.
var ErrStorageUnavailable = errors.New("storage unavailable")

// unavailable wraps a driver error so errors.Is(err, ErrStorageUnavailable)
// holds while the underlying cause stays visible in the message.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// Store provides durable on-device storage for reading progress,
// bookmarks, daily history, and cached content metadata.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times, including
// concurrently from multiple execution contexts of the same client.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("connect to database", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1) // Keep one connection ready

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, unavailable("apply pragmas", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, unavailable("apply schema", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query executes a query and returns the resulting rows.
// Convenience wrapper for ad hoc inspection (CLI status output).
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
// Migrations are monotonic: each step upgrades in place without data loss.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// Apply migrations sequentially
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}
	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
		version = 2
	}
	if version < 3 {
		if err := migrateToV3(db); err != nil {
			return err
		}
		version = 3
	}

	// Set version after all migrations
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the reading_history table for databases created before
// daily history tracking existed. New databases get it from schema.sql.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reading_history (
			identity         TEXT    NOT NULL,
			date             TEXT    NOT NULL,
			subsection_count INTEGER NOT NULL DEFAULT 0,
			sections         TEXT    NOT NULL DEFAULT '[]',
			PRIMARY KEY (identity, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// migrateToV2 adds the identity index on reading_history.
// CREATE INDEX IF NOT EXISTS is safe - no-op if the index exists.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reading_history_identity
		ON reading_history(identity)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// migrateToV3 relaxes the progress position CHECKs so a record created
// by a bookmark toggle before any read (position 0/0) is storable.
// SQLite cannot alter a CHECK in place, so the table is rebuilt and the
// rows copied over.
func migrateToV3(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v3: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE progress_v3 (
			identity        TEXT    PRIMARY KEY,
			last_section    INTEGER NOT NULL CHECK (last_section >= 0),
			last_subsection INTEGER NOT NULL CHECK (last_subsection >= 0),
			last_read_at    INTEGER NOT NULL,
			bookmarks       TEXT    NOT NULL DEFAULT '[]'
		)`,
		`INSERT INTO progress_v3
			SELECT identity, last_section, last_subsection, last_read_at, bookmarks
			FROM progress`,
		`DROP TABLE progress`,
		`ALTER TABLE progress_v3 RENAME TO progress`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v3: %w", err)
		}
	}
	return tx.Commit()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
