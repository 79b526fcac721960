package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/storage/memory"
	"github.com/repolens/repolens/internal/types"
)

// fakeUpstream simulates the paginated issue-listing API over a fixed
// corpus of records sorted newest-created first.
type fakeUpstream struct {
	records  []github.Record
	calls    int
	notFound bool
	failPage int   // page number that fails, 0 for none
	failErr  error // error returned for failPage
}

func (f *fakeUpstream) ListOpenIssues(ctx context.Context, repo string, page, perPage int, since time.Time) ([]github.Record, error) {
	f.calls++
	if f.notFound {
		return nil, fmt.Errorf("%w: %s", github.ErrNotFound, repo)
	}
	if f.failPage != 0 && page == f.failPage {
		return nil, f.failErr
	}

	var matched []github.Record
	for _, record := range f.records {
		if !since.IsZero() && record.Issue != nil && !record.Issue.CreatedAt.After(since) {
			continue
		}
		matched = append(matched, record)
	}

	start := (page - 1) * perPage
	if start >= len(matched) {
		return nil, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func upstreamIssue(repo string, id int64, created time.Time) github.Record {
	return github.Record{Issue: &types.Issue{
		Repo:      repo,
		ID:        id,
		Number:    int(id),
		Title:     fmt.Sprintf("Issue %d", id),
		Body:      "body",
		URL:       fmt.Sprintf("https://github.com/%s/issues/%d", repo, id),
		CreatedAt: created,
	}}
}

// corpus builds n issues with descending creation times starting at newest
func corpus(repo string, n int, newest time.Time) []github.Record {
	records := make([]github.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, upstreamIssue(repo, int64(n-i), newest.Add(-time.Duration(i)*time.Minute)))
	}
	return records
}

func TestFirstScanPaginatesToExhaustion(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/hello"
	newest := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	upstream := &fakeUpstream{records: corpus(repo, 250, newest)}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(context.Background(), repo)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.Status != types.ScanFirstScan {
		t.Errorf("status = %s, want first_scan", result.Status)
	}
	if result.NewFetched != 250 {
		t.Errorf("new_fetched = %d, want 250", result.NewFetched)
	}
	if result.IssuesFetched != 250 {
		t.Errorf("issues_fetched = %d, want 250", result.IssuesFetched)
	}
	// 3 full pages then a partial page of 50 terminates the loop
	if upstream.calls != 3 {
		t.Errorf("upstream calls = %d, want 3", upstream.calls)
	}

	count, err := store.CountIssues(context.Background(), repo)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 250 {
		t.Errorf("stored rows = %d, want 250", count)
	}

	state, err := store.GetScanState(context.Background(), repo)
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if state == nil || state.TotalIssues != 250 {
		t.Errorf("unexpected scan state: %+v", state)
	}
}

func TestIncrementalConvergence(t *testing.T) {
	store := memory.New()
	defer store.Close()

	ctx := context.Background()
	repo := "octocat/hello"
	baseline := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// Cache already holds 3 issues created before the baseline
	var seeded []*types.Issue
	for i := int64(1); i <= 3; i++ {
		record := upstreamIssue(repo, i, baseline.Add(-time.Duration(i)*time.Hour))
		seeded = append(seeded, record.Issue)
	}
	if _, err := store.UpsertIssues(ctx, repo, seeded); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.PutScanState(ctx, &types.ScanState{Repo: repo, LastScannedAt: baseline, TotalIssues: 3}); err != nil {
		t.Fatalf("seed state failed: %v", err)
	}

	// Upstream has those 3 plus 5 newer issues created after the baseline
	var records []github.Record
	for i := int64(8); i >= 4; i-- {
		records = append(records, upstreamIssue(repo, i, baseline.Add(time.Duration(i)*time.Minute)))
	}
	for _, issue := range seeded {
		records = append(records, github.Record{Issue: issue})
	}
	upstream := &fakeUpstream{records: records}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(ctx, repo)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.Status != types.ScanUpdated {
		t.Errorf("status = %s, want updated", result.Status)
	}
	if result.NewFetched != 5 {
		t.Errorf("new_fetched = %d, want 5", result.NewFetched)
	}
	if result.IssuesFetched != 8 {
		t.Errorf("issues_fetched = %d, want 8", result.IssuesFetched)
	}
}

func TestNoChangeDetectionAdvancesTimestamp(t *testing.T) {
	store := memory.New()
	defer store.Close()

	ctx := context.Background()
	repo := "octocat/hello"
	newest := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	upstream := &fakeUpstream{records: corpus(repo, 10, newest)}

	scanner := New(store, upstream, nil)
	clock := newest.Add(time.Hour)
	scanner.now = func() time.Time { return clock }

	first, err := scanner.Scan(ctx, repo)
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if first.Status != types.ScanFirstScan {
		t.Errorf("first status = %s, want first_scan", first.Status)
	}

	clock = clock.Add(time.Hour)
	second, err := scanner.Scan(ctx, repo)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if second.Status != types.ScanNoChanges {
		t.Errorf("second status = %s, want no_changes", second.Status)
	}
	if second.NewFetched != 0 {
		t.Errorf("second new_fetched = %d, want 0", second.NewFetched)
	}
	if !second.LastScannedAt.After(first.LastScannedAt) {
		t.Errorf("freshness did not advance: %v -> %v", first.LastScannedAt, second.LastScannedAt)
	}

	state, err := store.GetScanState(ctx, repo)
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if !state.LastScannedAt.Equal(second.LastScannedAt) {
		t.Errorf("stored timestamp %v does not match result %v", state.LastScannedAt, second.LastScannedAt)
	}
}

func TestPullRequestsExcluded(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/hello"
	newest := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	// 10 records, 3 of them pull requests
	var records []github.Record
	for i := 0; i < 10; i++ {
		if i%3 == 2 {
			records = append(records, github.Record{PullRequest: true})
			continue
		}
		records = append(records, upstreamIssue(repo, int64(i+1), newest.Add(-time.Duration(i)*time.Minute)))
	}
	upstream := &fakeUpstream{records: records}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(context.Background(), repo)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.NewFetched != 7 {
		t.Errorf("new_fetched = %d, want 7", result.NewFetched)
	}
	count, err := store.CountIssues(context.Background(), repo)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 7 {
		t.Errorf("stored rows = %d, want 7", count)
	}
}

func TestPageCapEnforced(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/huge"
	newest := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	upstream := &fakeUpstream{records: corpus(repo, 1500, newest)}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(context.Background(), repo)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if upstream.calls != 10 {
		t.Errorf("upstream calls = %d, want 10", upstream.calls)
	}
	if result.NewFetched != 1000 {
		t.Errorf("new_fetched = %d, want 1000", result.NewFetched)
	}
	count, err := store.CountIssues(context.Background(), repo)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1000 {
		t.Errorf("stored rows = %d, want 1000", count)
	}
}

func TestRepoNotFound(t *testing.T) {
	store := memory.New()
	defer store.Close()

	upstream := &fakeUpstream{notFound: true}
	scanner := New(store, upstream, nil)

	_, err := scanner.Scan(context.Background(), "octocat/missing")
	if !errors.Is(err, ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}

	state, stateErr := store.GetScanState(context.Background(), "octocat/missing")
	if stateErr != nil {
		t.Fatalf("get state failed: %v", stateErr)
	}
	if state != nil {
		t.Errorf("scan state written for missing repo: %+v", state)
	}
}

func TestTransportFailureKeepsCommittedPages(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/hello"
	newest := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	upstream := &fakeUpstream{
		records:  corpus(repo, 250, newest),
		failPage: 2,
		failErr:  &github.StatusError{StatusCode: http.StatusInternalServerError},
	}
	scanner := New(store, upstream, nil)

	_, err := scanner.Scan(context.Background(), repo)
	if err == nil {
		t.Fatal("expected transport failure")
	}
	var statusErr *github.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError in chain, got %v", err)
	}

	// Page 1 stays committed; no scan state was written
	count, countErr := store.CountIssues(context.Background(), repo)
	if countErr != nil {
		t.Fatalf("count failed: %v", countErr)
	}
	if count != 100 {
		t.Errorf("stored rows = %d, want 100 from the committed first page", count)
	}
	state, stateErr := store.GetScanState(context.Background(), repo)
	if stateErr != nil {
		t.Fatalf("get state failed: %v", stateErr)
	}
	if state != nil {
		t.Errorf("scan state written after aborted scan: %+v", state)
	}

	// A retry converges; idempotent upserts make the replayed page safe
	upstream.failPage = 0
	result, err := scanner.Scan(context.Background(), repo)
	if err != nil {
		t.Fatalf("retry scan failed: %v", err)
	}
	if result.IssuesFetched != 250 {
		t.Errorf("issues_fetched after retry = %d, want 250", result.IssuesFetched)
	}
}

func TestEmptyRepositoryFirstScan(t *testing.T) {
	store := memory.New()
	defer store.Close()

	upstream := &fakeUpstream{}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(context.Background(), "octocat/empty")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Status != types.ScanFirstScan {
		t.Errorf("status = %s, want first_scan", result.Status)
	}
	if result.NewFetched != 0 || result.IssuesFetched != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}

	state, err := store.GetScanState(context.Background(), "octocat/empty")
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if state == nil {
		t.Fatal("scan state should be written even for an empty repository")
	}
}

func TestAllPullRequestPageTerminates(t *testing.T) {
	store := memory.New()
	defer store.Close()

	// A full page of pull requests filters to zero issues and stops the loop
	records := make([]github.Record, 100)
	for i := range records {
		records[i] = github.Record{PullRequest: true}
	}
	upstream := &fakeUpstream{records: records}
	scanner := New(store, upstream, nil)

	result, err := scanner.Scan(context.Background(), "octocat/prs-only")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls)
	}
	if result.NewFetched != 0 {
		t.Errorf("new_fetched = %d, want 0", result.NewFetched)
	}
}
