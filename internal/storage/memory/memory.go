// Package memory implements the storage interface using in-memory data structures.
// It backs tests that need an isolated store instance without touching disk.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/repolens/repolens/internal/types"
)

// MemoryStorage implements the Storage interface using in-memory data structures
type MemoryStorage struct {
	mu sync.RWMutex // Protects both maps

	issues    map[string]map[int64]*types.Issue // repo -> upstream id -> issue
	scanState map[string]*types.ScanState       // repo -> scan metadata

	closed bool
}

// New creates a new in-memory storage backend
func New() *MemoryStorage {
	return &MemoryStorage{
		issues:    make(map[string]map[int64]*types.Issue),
		scanState: make(map[string]*types.ScanState),
	}
}

// UpsertIssues writes all given issues as one atomic batch.
// Validation runs up front so a bad record leaves the maps untouched.
func (m *MemoryStorage) UpsertIssues(ctx context.Context, repo string, issues []*types.Issue) (int, error) {
	if len(issues) == 0 {
		return 0, nil
	}

	for i, issue := range issues {
		if issue == nil {
			return 0, fmt.Errorf("issue %d is nil", i)
		}
		if issue.Repo != repo {
			return 0, fmt.Errorf("issue %d belongs to %q, not %q", i, issue.Repo, repo)
		}
		if err := issue.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed for issue %d: %w", i, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, fmt.Errorf("storage is closed")
	}

	byID, ok := m.issues[repo]
	if !ok {
		byID = make(map[int64]*types.Issue)
		m.issues[repo] = byID
	}
	for _, issue := range issues {
		copied := *issue
		byID[issue.ID] = &copied
	}
	return len(issues), nil
}

// CountIssues returns the total cached rows for a repository
func (m *MemoryStorage) CountIssues(ctx context.Context, repo string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.issues[repo]), nil
}

// GetIssues returns all cached issues for a repository, newest created first
func (m *MemoryStorage) GetIssues(ctx context.Context, repo string) ([]*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.issues[repo]
	issues := make([]*types.Issue, 0, len(byID))
	for _, issue := range byID {
		copied := *issue
		issues = append(issues, &copied)
	}

	sort.Slice(issues, func(a, b int) bool {
		if !issues[a].CreatedAt.Equal(issues[b].CreatedAt) {
			return issues[a].CreatedAt.After(issues[b].CreatedAt)
		}
		return issues[a].ID > issues[b].ID
	})

	return issues, nil
}

// GetScanState returns the scan metadata for a repository, or nil if absent
func (m *MemoryStorage) GetScanState(ctx context.Context, repo string) (*types.ScanState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.scanState[repo]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

// PutScanState upserts scan metadata by repository
func (m *MemoryStorage) PutScanState(ctx context.Context, state *types.ScanState) error {
	if state == nil {
		return fmt.Errorf("scan state is nil")
	}
	if state.Repo == "" {
		return fmt.Errorf("scan state repo is required")
	}
	if state.LastScannedAt.IsZero() {
		return fmt.Errorf("scan state last_scanned_at is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("storage is closed")
	}

	copied := *state
	m.scanState[state.Repo] = &copied
	return nil
}

// Close marks the storage as closed
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Path returns an empty string; in-memory backends have no file
func (m *MemoryStorage) Path() string {
	return ""
}
