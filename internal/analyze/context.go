// Package analyze builds bounded prompt context from the issue cache and
// runs natural-language analysis over it via a completion client.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/repolens/repolens/internal/storage"
)

const (
	// bodyLimit is how many characters of an issue body survive into its fragment
	bodyLimit = 200

	// contextBudget bounds the total context buffer. The downstream model
	// has a fixed context window; a character count approximates tokens
	// at roughly 3-4 characters each.
	contextBudget = 12000
)

// ErrNoCachedIssues is returned when analysis is requested for a
// repository with zero cached issues; the caller must scan first.
var ErrNoCachedIssues = errors.New("no cached issues for repository")

var whitespaceRuns = regexp.MustCompile(`\s+`)

// BuildContext assembles a deterministic, size-bounded textual summary of
// a repository's cached issues, newest created first. Fragments are
// accumulated whole: the first fragment that would push the buffer past
// the budget is dropped and accumulation stops, so only body-level
// truncation ever occurs.
func BuildContext(ctx context.Context, store storage.Storage, repo string) (string, error) {
	issues, err := store.GetIssues(ctx, repo)
	if err != nil {
		return "", fmt.Errorf("failed to read cached issues: %w", err)
	}
	if len(issues) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoCachedIssues, repo)
	}

	var b strings.Builder
	for _, issue := range issues {
		fragment := formatFragment(issue.Number, issue.Title, issue.Body)
		if b.Len()+len(fragment) > contextBudget {
			break
		}
		b.WriteString(fragment)
	}

	return b.String(), nil
}

// formatFragment renders one issue as a fixed-format context fragment.
// Whitespace runs in the body collapse to single spaces before the
// 200-character cut, denoising free-form text without losing structure.
func formatFragment(number int, title, body string) string {
	cleaned := strings.TrimSpace(whitespaceRuns.ReplaceAllString(body, " "))
	if runes := []rune(cleaned); len(runes) > bodyLimit {
		cleaned = string(runes[:bodyLimit])
	}
	if cleaned == "" {
		return fmt.Sprintf("#%d %s\n\n", number, title)
	}
	return fmt.Sprintf("#%d %s\n%s\n\n", number, title, cleaned)
}
