// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	// Import SQLite driver
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool // Tracks whether Close() has been called
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Convert :memory: to shared memory URL for consistent behavior across connections.
	// SQLite creates separate in-memory databases for each connection to ":memory:",
	// but "file::memory:?cache=shared" creates a shared in-memory database.
	dbPath := path
	if path == ":memory:" {
		dbPath = "file::memory:?cache=shared"
	}

	// Ensure directory exists (skip for memory databases)
	if !strings.Contains(dbPath, ":memory:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency and busy timeout for parallel writes.
	// _pragma=journal_mode(WAL) enables Write-Ahead Logging
	// _pragma=foreign_keys(ON) enforces foreign key constraints
	// _pragma=busy_timeout(30000) waits up to 30 seconds for locks instead of failing immediately
	// _time_format=sqlite enables automatic parsing of DATETIME columns to time.Time
	// Note: For shared memory URLs, additional params need to be added with & not ?
	connStr := dbPath
	if strings.Contains(dbPath, "?") {
		connStr += "&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	} else {
		connStr += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Migrate existing databases to add the scan_state table if missing
	if err := migrateScanStateTable(db); err != nil {
		return nil, fmt.Errorf("failed to migrate scan_state table: %w", err)
	}

	// Migrate existing databases to add the url column if missing
	if err := migrateURLColumn(db); err != nil {
		return nil, fmt.Errorf("failed to migrate url column: %w", err)
	}

	// Convert to absolute path for consistency
	absPath := path
	if !strings.Contains(dbPath, ":memory:") {
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: absPath,
	}, nil
}

// migrateScanStateTable checks if the scan_state table exists and creates it if missing.
// This ensures databases created before scan metadata bookkeeping get migrated automatically.
func migrateScanStateTable(db *sql.DB) error {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='scan_state'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		_, err := db.Exec(`
			CREATE TABLE scan_state (
				repo TEXT PRIMARY KEY,
				last_scanned_at DATETIME NOT NULL,
				total_issues INTEGER NOT NULL DEFAULT 0
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to create scan_state table: %w", err)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to check for scan_state table: %w", err)
	}

	// Table exists, no migration needed
	return nil
}

// migrateURLColumn checks if the url column exists and adds it if missing.
// This migration is idempotent and safe to run multiple times.
func migrateURLColumn(db *sql.DB) error {
	var columnExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('issues')
		WHERE name = 'url'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check url column: %w", err)
	}

	if columnExists {
		return nil
	}

	_, err = db.Exec(`ALTER TABLE issues ADD COLUMN url TEXT NOT NULL DEFAULT ''`)
	if err != nil {
		return fmt.Errorf("failed to add url column: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.closed.Swap(true) {
		// Already closed, nothing to do
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}
