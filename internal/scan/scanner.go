// Package scan brings the local issue cache up to date with the
// currently-open issues of one repository.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/storage"
	"github.com/repolens/repolens/internal/types"
)

const (
	// pageSize is the number of records requested per upstream page
	pageSize = 100

	// maxPages caps how many pages a single scan may walk. The cap keeps
	// a stale cache behind a large repository from turning one invocation
	// into an unbounded history walk; repeated incremental scans still
	// converge to completeness.
	maxPages = 10
)

// ErrRepoNotFound is returned when the upstream reports the repository
// does not exist. No scan state is written in that case.
var ErrRepoNotFound = errors.New("repository not found upstream")

// IssueLister is the upstream pagination contract the scanner consumes
type IssueLister interface {
	ListOpenIssues(ctx context.Context, repo string, page, perPage int, since time.Time) ([]github.Record, error)
}

// Scanner runs incremental scans against one upstream issue source
type Scanner struct {
	store  storage.Storage
	client IssueLister
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scanner over the given store and upstream client.
// A nil logger discards scan progress logs.
func New(store storage.Storage, client IssueLister, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		store:  store,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Scan fetches the repository's open issues page by page, writes each
// page through to the store, and records fresh scan metadata.
//
// The first scan of a repository walks pages with no lower time bound;
// later scans bound every request by the previous scan's timestamp so
// already-seen issues are never re-transferred. Each page commits before
// the next is requested, so partial progress survives a mid-scan failure
// and a retry simply replays idempotent upserts.
func (s *Scanner) Scan(ctx context.Context, repo string) (*types.ScanResult, error) {
	prior, err := s.store.GetScanState(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan state: %w", err)
	}

	var since time.Time
	firstScan := prior == nil
	if !firstScan {
		since = prior.LastScannedAt
	}
	s.logger.Info("scan started", "repo", repo, "first_scan", firstScan, "since", since)

	newFetched := 0
	for page := 1; page <= maxPages; page++ {
		records, err := s.client.ListOpenIssues(ctx, repo, page, pageSize, since)
		if err != nil {
			if errors.Is(err, github.ErrNotFound) && page == 1 {
				return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, repo)
			}
			// A 404 beyond the first page is as unexpected as any other
			// failure; pages already written stay committed.
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		issues := make([]*types.Issue, 0, len(records))
		for _, record := range records {
			if record.PullRequest {
				continue
			}
			issues = append(issues, record.Issue)
		}

		if len(issues) > 0 {
			n, err := s.store.UpsertIssues(ctx, repo, issues)
			if err != nil {
				return nil, fmt.Errorf("writing page %d: %w", page, err)
			}
			newFetched += n
		}
		s.logger.Debug("page stored", "repo", repo, "page", page, "records", len(records), "issues", len(issues))

		// Terminate on an all-filtered page or a short upstream page
		if len(issues) == 0 || len(records) < pageSize {
			break
		}
	}

	// Recompute from the store rather than the in-loop tally; incremental
	// scans add to a pre-existing count.
	total, err := s.store.CountIssues(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}

	scannedAt := s.now().UTC()
	state := &types.ScanState{
		Repo:          repo,
		LastScannedAt: scannedAt,
		TotalIssues:   total,
	}
	// Written even when nothing new was found so freshness always advances
	if err := s.store.PutScanState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to write scan state: %w", err)
	}

	status := types.ScanNoChanges
	switch {
	case firstScan:
		status = types.ScanFirstScan
	case newFetched > 0:
		status = types.ScanUpdated
	}
	s.logger.Info("scan finished", "repo", repo, "status", status, "new_fetched", newFetched, "total", total)

	return &types.ScanResult{
		Repo:          repo,
		Status:        status,
		NewFetched:    newFetched,
		IssuesFetched: total,
		LastScannedAt: scannedAt,
	}, nil
}
