package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/repolens/repolens/internal/types"
)

// GetScanState returns the scan metadata for a repository, or nil if the
// repository has never been scanned.
func (s *SQLiteStorage) GetScanState(ctx context.Context, repo string) (*types.ScanState, error) {
	var state types.ScanState
	err := s.db.QueryRowContext(ctx, `
		SELECT repo, last_scanned_at, total_issues
		FROM scan_state
		WHERE repo = ?
	`, repo).Scan(&state.Repo, &state.LastScannedAt, &state.TotalIssues)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan state: %w", err)
	}

	return &state, nil
}

// PutScanState upserts scan metadata by repository
func (s *SQLiteStorage) PutScanState(ctx context.Context, state *types.ScanState) error {
	if state == nil {
		return fmt.Errorf("scan state is nil")
	}
	if state.Repo == "" {
		return fmt.Errorf("scan state repo is required")
	}
	if state.LastScannedAt.IsZero() {
		return fmt.Errorf("scan state last_scanned_at is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_state (repo, last_scanned_at, total_issues)
		VALUES (?, ?, ?)
		ON CONFLICT(repo) DO UPDATE SET
			last_scanned_at = excluded.last_scanned_at,
			total_issues = excluded.total_issues
	`, state.Repo, state.LastScannedAt.UTC(), state.TotalIssues)
	if err != nil {
		return fmt.Errorf("failed to put scan state: %w", err)
	}
	return nil
}
