package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultLocalBaseURL is Ollama's OpenAI-compatible endpoint
	DefaultLocalBaseURL = "http://localhost:11434/v1"

	defaultLocalModel = "llama3.1"
)

// LocalClient talks to a locally hosted model through any
// OpenAI-compatible chat completion endpoint (Ollama, llama.cpp, vLLM).
type LocalClient struct {
	client *openai.Client
	model  string
}

// NewLocalClient creates a client for a local OpenAI-compatible server.
// Local servers ignore the API key but the wire format requires one, so
// an empty key is replaced with a placeholder.
func NewLocalClient(baseURL, apiKey, model string) *LocalClient {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	if apiKey == "" {
		apiKey = "local"
	}
	if model == "" {
		model = defaultLocalModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	slog.Debug("initializing local llm client", "base_url", baseURL, "model", model)
	return &LocalClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete implements the Client interface
func (c *LocalClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
