package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalClientComplete(t *testing.T) {
	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chatRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "three bugs stand out"}}]}`)
	}))
	defer srv.Close()

	client := NewLocalClient(srv.URL, "", "test-model")
	answer, err := client.Complete(context.Background(), "system instruction", "user question")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if answer != "three bugs stand out" {
		t.Errorf("answer = %q", answer)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q, want test-model", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "system instruction" {
		t.Errorf("unexpected system message: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "user question" {
		t.Errorf("unexpected user message: %+v", got.Messages[1])
	}
}

func TestLocalClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	client := NewLocalClient(srv.URL, "", "test-model")
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewClientProviderSelection(t *testing.T) {
	client, err := NewClient(Config{Provider: ProviderLocal})
	if err != nil {
		t.Fatalf("local provider failed: %v", err)
	}
	if _, ok := client.(*LocalClient); !ok {
		t.Errorf("expected *LocalClient, got %T", client)
	}

	// Empty provider defaults to local
	client, err = NewClient(Config{})
	if err != nil {
		t.Fatalf("default provider failed: %v", err)
	}
	if _, ok := client.(*LocalClient); !ok {
		t.Errorf("expected *LocalClient for default, got %T", client)
	}

	client, err = NewClient(Config{Provider: ProviderAnthropic, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("anthropic provider failed: %v", err)
	}
	if _, ok := client.(*AnthropicClient); !ok {
		t.Errorf("expected *AnthropicClient, got %T", client)
	}

	if _, err := NewClient(Config{Provider: ProviderAnthropic}); err == nil {
		t.Error("anthropic without API key should fail")
	}

	if _, err := NewClient(Config{Provider: "bedrock"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
