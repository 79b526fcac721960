// Package llm abstracts the language-model completion collaborator.
package llm

import (
	"context"
	"fmt"
)

// Client is the completion contract the analyzer consumes: one system
// instruction plus one user message in, one text completion out.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Provider names for Config.Provider
const (
	ProviderLocal     = "local"
	ProviderAnthropic = "anthropic"
)

// Config selects and parameterizes a completion backend
type Config struct {
	Provider string // "local" (OpenAI-compatible endpoint) or "anthropic"
	BaseURL  string // local provider only; e.g. an Ollama endpoint
	APIKey   string
	Model    string
}

// NewClient creates a completion client for the configured provider
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
