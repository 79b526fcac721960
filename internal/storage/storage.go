// Package storage defines the interface for issue cache backends.
package storage

import (
	"context"

	"github.com/repolens/repolens/internal/types"
)

// Storage defines the interface for issue cache backends.
//
// All keys are scoped by repository slug, so operations on different
// repositories never interfere. Callers access the cache only through
// this contract; no cursor or transaction handle crosses a call boundary.
type Storage interface {
	// UpsertIssues writes all given issues as a single atomic batch.
	// An issue already present under the same (repo, id) is fully
	// overwritten. Returns the number of issues written; a failure
	// partway leaves prior state unchanged.
	UpsertIssues(ctx context.Context, repo string, issues []*types.Issue) (int, error)

	// CountIssues returns the total cached rows for a repository.
	CountIssues(ctx context.Context, repo string) (int, error)

	// GetIssues returns all cached issues for a repository ordered by
	// created_at descending, fully materialized.
	GetIssues(ctx context.Context, repo string) ([]*types.Issue, error)

	// GetScanState returns the scan metadata for a repository, or nil
	// if the repository has never been scanned.
	GetScanState(ctx context.Context, repo string) (*types.ScanState, error)

	// PutScanState upserts scan metadata by repository.
	PutScanState(ctx context.Context, state *types.ScanState) error

	// Lifecycle
	Close() error

	// Database path (for diagnostics; empty for in-memory backends)
	Path() string
}
