package analyze

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/internal/llm"
	"github.com/repolens/repolens/internal/storage"
)

const systemPrompt = "You are an assistant that analyzes the open issues of a " +
	"software repository. Answer the user's question using only the issue " +
	"summaries provided. Be concise and cite issue numbers where relevant."

// Analyzer answers free-text questions about a repository's cached issues
type Analyzer struct {
	store storage.Storage
	llm   llm.Client
}

// NewAnalyzer creates an analyzer over the given store and completion client
func NewAnalyzer(store storage.Storage, client llm.Client) *Analyzer {
	return &Analyzer{store: store, llm: client}
}

// Analyze builds the bounded context for the repository, sends it with the
// question to the completion client, and returns the model's text.
// Returns ErrNoCachedIssues when the repository has never been scanned.
func (a *Analyzer) Analyze(ctx context.Context, repo, question string) (string, error) {
	contextBuf, err := BuildContext(ctx, a.store, repo)
	if err != nil {
		return "", err
	}

	user := fmt.Sprintf("Open issues for %s:\n\n%s\nQuestion: %s", repo, contextBuf, question)
	answer, err := a.llm.Complete(ctx, systemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return answer, nil
}
