package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ConaryLabs/Mira/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Open opens the SQLite database at dbPath, creating the file and schema if
// needed. The dbPath parameter allows tests to use t.TempDir() instead of
// ~/Mira/data/mira.db.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Pragmas in the connection string apply to all pool connections.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	// Set file permissions after the file exists (best-effort).
	_ = os.Chmod(dbPath, 0600)

	return database, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(database *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: initial schema.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id         TEXT PRIMARY KEY,
		  path       TEXT NOT NULL UNIQUE,
		  name       TEXT,
		  created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS memory_entries (
		  id         TEXT PRIMARY KEY,
		  session_id TEXT NOT NULL,
		  role       TEXT NOT NULL,
		  content    TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  project_id TEXT REFERENCES projects(id)
		);

		CREATE INDEX IF NOT EXISTS idx_memory_entries_session
		ON memory_entries(session_id, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_memory_entries_role
		ON memory_entries(role, created_at DESC);

		CREATE TABLE IF NOT EXISTS memory_facts (
		  id         TEXT PRIMARY KEY,
		  fact_type  TEXT NOT NULL,
		  key        TEXT NOT NULL,
		  value      TEXT NOT NULL,
		  category   TEXT,
		  source     TEXT,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL,
		  project_id TEXT REFERENCES projects(id)
		);

		CREATE INDEX IF NOT EXISTS idx_memory_facts_key
		ON memory_facts(key);

		CREATE INDEX IF NOT EXISTS idx_memory_facts_category
		ON memory_facts(category, updated_at DESC);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
