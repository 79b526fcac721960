package types

import (
	"fmt"
	"strings"
	"time"
)

// Issue is one cached upstream issue. The upstream tracker assigns both
// an ID (globally unique, stable across edits) and a Number (unique only
// within its repository), so the cache keys rows by (Repo, ID).
type Issue struct {
	Repo      string    `json:"repo"`
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if i.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	if i.ID <= 0 {
		return fmt.Errorf("id must be positive (got %d)", i.ID)
	}
	if i.Number <= 0 {
		return fmt.Errorf("number must be positive (got %d)", i.Number)
	}
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if i.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// ScanState records the outcome of the last completed scan of a repository.
// Absent until the first scan completes; overwritten after every scan.
type ScanState struct {
	Repo          string    `json:"repo"`
	LastScannedAt time.Time `json:"last_scanned_at"`
	TotalIssues   int       `json:"total_issues"`
}

// ScanStatus summarizes what a scan changed
type ScanStatus string

const (
	ScanFirstScan ScanStatus = "first_scan"
	ScanUpdated   ScanStatus = "updated"
	ScanNoChanges ScanStatus = "no_changes"
)

// IsValid checks if the scan status value is valid
func (s ScanStatus) IsValid() bool {
	switch s {
	case ScanFirstScan, ScanUpdated, ScanNoChanges:
		return true
	}
	return false
}

// ScanResult is returned to the caller after a scan completes.
// IssuesFetched is the total cached count for the repository as of this
// scan; NewFetched counts only the issues written during this pass.
type ScanResult struct {
	Repo          string     `json:"repo"`
	Status        ScanStatus `json:"status"`
	NewFetched    int        `json:"new_fetched"`
	IssuesFetched int        `json:"issues_fetched"`
	LastScannedAt time.Time  `json:"last_scanned_at"`
}

// ValidateRepoSlug checks that a repository slug has the owner/name shape.
// Slug validation is a boundary concern; the core assumes well-formed slugs.
func ValidateRepoSlug(repo string) error {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("repo must have the form owner/name (got %q)", repo)
	}
	for _, part := range parts {
		if strings.ContainsAny(part, " \t\n") {
			return fmt.Errorf("repo must not contain whitespace (got %q)", repo)
		}
	}
	return nil
}
