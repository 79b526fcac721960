package sqlite

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/internal/types"
)

// validateBatchIssues validates all issues in a batch before any write occurs
func validateBatchIssues(repo string, issues []*types.Issue) error {
	for i, issue := range issues {
		if issue == nil {
			return fmt.Errorf("issue %d is nil", i)
		}
		if issue.Repo != repo {
			return fmt.Errorf("issue %d belongs to %q, not %q", i, issue.Repo, repo)
		}
		if err := issue.Validate(); err != nil {
			return fmt.Errorf("validation failed for issue %d: %w", i, err)
		}
	}
	return nil
}

// UpsertIssues writes all given issues in a single transaction.
// Rows already present under the same (repo, id) are fully overwritten,
// so replaying a page after a retry never produces duplicates.
func (s *SQLiteStorage) UpsertIssues(ctx context.Context, repo string, issues []*types.Issue) (int, error) {
	if len(issues) == 0 {
		return 0, nil
	}

	// Phase 1: Validate all issues first (fail-fast)
	if err := validateBatchIssues(repo, issues); err != nil {
		return 0, err
	}

	// Phase 2: Acquire a dedicated connection for the transaction.
	// We need raw "BEGIN IMMEDIATE"/"COMMIT" on the same connection, and
	// database/sql's pool would otherwise spread queries across connections.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// IMMEDIATE acquires the write lock up front so concurrent writers
	// queue on busy_timeout instead of failing mid-batch.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return 0, fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	// Use context.Background() for ROLLBACK so cleanup happens even if ctx is canceled
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	stmt, err := conn.PrepareContext(ctx, `
		INSERT INTO issues (repo, id, number, title, body, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			body = excluded.body,
			url = excluded.url,
			created_at = excluded.created_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, issue := range issues {
		_, err = stmt.ExecContext(ctx,
			issue.Repo, issue.ID, issue.Number, issue.Title,
			issue.Body, issue.URL, issue.CreatedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert issue %d: %w", issue.ID, err)
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return len(issues), nil
}

// CountIssues returns the total cached rows for a repository
func (s *SQLiteStorage) CountIssues(ctx context.Context, repo string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE repo = ?`, repo).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// GetIssues returns all cached issues for a repository, newest created first.
// The id tiebreak keeps the order stable for issues sharing a timestamp.
func (s *SQLiteStorage) GetIssues(ctx context.Context, repo string) ([]*types.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repo, id, number, title, body, url, created_at
		FROM issues
		WHERE repo = ?
		ORDER BY created_at DESC, id DESC
	`, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		var issue types.Issue
		err := rows.Scan(
			&issue.Repo, &issue.ID, &issue.Number, &issue.Title,
			&issue.Body, &issue.URL, &issue.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, &issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading issues: %w", err)
	}

	return issues, nil
}
