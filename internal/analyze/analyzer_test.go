package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/repolens/repolens/internal/storage/memory"
	"github.com/repolens/repolens/internal/types"
)

type stubLLM struct {
	answer string
	err    error

	gotSystem string
	gotUser   string
	calls     int
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.gotSystem = system
	s.gotUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func TestAnalyzePromptAssembly(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/hello"
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seedIssues(t, store, repo, []*types.Issue{
		makeIssue(repo, 7, base, "Crash on startup", "segfault in init"),
	})

	llm := &stubLLM{answer: "Issue #7 looks critical."}
	a := NewAnalyzer(store, llm)

	answer, err := a.Analyze(context.Background(), repo, "What is most urgent?")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if answer != "Issue #7 looks critical." {
		t.Errorf("answer = %q", answer)
	}
	if llm.calls != 1 {
		t.Errorf("Complete called %d times, want 1", llm.calls)
	}
	if llm.gotSystem != systemPrompt {
		t.Errorf("system prompt = %q", llm.gotSystem)
	}
	if !strings.HasPrefix(llm.gotUser, "Open issues for octocat/hello:") {
		t.Errorf("user message missing repo header: %q", llm.gotUser)
	}
	if !strings.Contains(llm.gotUser, "#7 Crash on startup") {
		t.Errorf("user message missing issue fragment: %q", llm.gotUser)
	}
	if !strings.HasSuffix(llm.gotUser, "Question: What is most urgent?") {
		t.Errorf("user message missing question: %q", llm.gotUser)
	}
}

func TestAnalyzeUnscannedRepo(t *testing.T) {
	store := memory.New()
	defer store.Close()

	llm := &stubLLM{answer: "unreachable"}
	a := NewAnalyzer(store, llm)

	_, err := a.Analyze(context.Background(), "octocat/unscanned", "anything?")
	if !errors.Is(err, ErrNoCachedIssues) {
		t.Fatalf("expected ErrNoCachedIssues, got %v", err)
	}
	if llm.calls != 0 {
		t.Error("completion client called for an unscanned repository")
	}
}

func TestAnalyzeCompletionFailure(t *testing.T) {
	store := memory.New()
	defer store.Close()

	repo := "octocat/hello"
	seedIssues(t, store, repo, []*types.Issue{
		makeIssue(repo, 1, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "Some issue", ""),
	})

	wantErr := errors.New("model unavailable")
	a := NewAnalyzer(store, &stubLLM{err: wantErr})

	_, err := a.Analyze(context.Background(), repo, "anything?")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped completion error, got %v", err)
	}
}
