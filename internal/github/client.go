// Package github is a minimal client for the GitHub REST issue-listing API.
//
// It covers exactly the surface the scan engine consumes: paginated
// listing of a repository's open issues, optionally bounded below by a
// "since" timestamp. Payload mapping fails closed; records missing
// required fields reject the page instead of propagating untyped data.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/repolens/repolens/internal/types"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint
	DefaultBaseURL = "https://api.github.com"

	apiVersion   = "2022-11-28"
	acceptHeader = "application/vnd.github+json"
)

// ErrNotFound is returned when the upstream reports the repository does not exist
var ErrNotFound = errors.New("repository not found")

// StatusError is any unexpected (non-200, non-404) upstream response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from github api: %s", e.StatusCode, e.Body)
}

// Record is one entry from the upstream issue listing. The upstream API
// conflates pull requests with issues in the same namespace; PullRequest
// marks records the caller must exclude.
type Record struct {
	Issue       *types.Issue
	PullRequest bool
}

// Client talks to the GitHub REST v3 API
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a GitHub API client. An empty baseURL selects the
// public API; an empty token sends unauthenticated requests.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// apiIssue is the wire shape of one issue-listing record
type apiIssue struct {
	ID          int64     `json:"id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	CreatedAt   time.Time `json:"created_at"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// ListOpenIssues fetches one page of a repository's open issues, sorted
// by creation time descending. A non-zero since bounds the listing below
// so already-cached records are not re-transferred.
func (c *Client) ListOpenIssues(ctx context.Context, repo string, page, perPage int, since time.Time) ([]Record, error) {
	q := url.Values{}
	q.Set("state", "open")
	q.Set("sort", "created")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}

	reqURL := fmt.Sprintf("%s/repos/%s/issues?%s", c.baseURL, repo, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, repo)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var raw []apiIssue
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, entry := range raw {
		if entry.PullRequest != nil {
			records = append(records, Record{PullRequest: true})
			continue
		}
		issue := &types.Issue{
			Repo:      repo,
			ID:        entry.ID,
			Number:    entry.Number,
			Title:     entry.Title,
			Body:      entry.Body,
			URL:       entry.HTMLURL,
			CreatedAt: entry.CreatedAt,
		}
		if err := issue.Validate(); err != nil {
			return nil, fmt.Errorf("malformed record %d on page %d: %w", i, page, err)
		}
		records = append(records, Record{Issue: issue})
	}

	return records, nil
}
