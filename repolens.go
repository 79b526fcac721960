// Package repolens provides a minimal public API for embedding repolens
// in other Go programs.
//
// It exports the essential types and functions needed to open the issue
// cache, run scans and build analysis context programmatically. The CLI
// in cmd/repolens is a thin layer over the same pieces.
package repolens

import (
	"os"
	"path/filepath"

	"github.com/repolens/repolens/internal/storage"
	"github.com/repolens/repolens/internal/storage/sqlite"
	"github.com/repolens/repolens/internal/types"
)

// Core types for working with cached issues and scans
type (
	Issue      = types.Issue
	ScanState  = types.ScanState
	ScanResult = types.ScanResult
	ScanStatus = types.ScanStatus
)

// Scan status constants
const (
	ScanFirstScan = types.ScanFirstScan
	ScanUpdated   = types.ScanUpdated
	ScanNoChanges = types.ScanNoChanges
)

// Storage is the issue cache interface backing scans and analysis
type Storage = storage.Storage

// NewSQLiteStorage opens a repolens SQLite cache for programmatic access
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// FindDatabasePath discovers the cache path using the standard search order:
//  1. $REPOLENS_DB environment variable
//  2. .repolens/*.db in current directory or ancestors
//  3. ~/.repolens/repolens.db (fallback)
//
// Returns empty string if no database is found at (1) or (2) and (3)
// doesn't exist.
func FindDatabasePath() string {
	if envDB := os.Getenv("REPOLENS_DB"); envDB != "" {
		return envDB
	}

	if foundDB := findDatabaseInTree(); foundDB != "" {
		return foundDB
	}

	if home, err := os.UserHomeDir(); err == nil {
		defaultDB := filepath.Join(home, ".repolens", "repolens.db")
		if _, err := os.Stat(defaultDB); err == nil {
			return defaultDB
		}
	}

	return ""
}

// DefaultDatabasePath returns the path a fresh cache should be created
// at when discovery finds nothing: ~/.repolens/repolens.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repolens.db"
	}
	return filepath.Join(home, ".repolens", "repolens.db")
}

// findDatabaseInTree walks up the directory tree looking for .repolens/*.db
func findDatabaseInTree() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		projDir := filepath.Join(dir, ".repolens")
		if info, err := os.Stat(projDir); err == nil && info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(projDir, "*.db"))
			if err == nil && len(matches) > 0 {
				return matches[0]
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
