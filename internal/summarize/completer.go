// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/work-output/pkg/types"
)

// ErrNotConfigured is returned by Unconfigured.Complete.
var ErrNotConfigured = errors.New("language model provider not configured")

// Completer abstracts a single-turn language-model call so tests can supply
// a mock.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Unconfigured is the null Completer used when no API key is present. Its
// calls never reach the network.
type Unconfigured struct {
	// KeyName is the environment variable that would enable the provider.
	KeyName string
}

// Complete always returns ErrNotConfigured.
func (Unconfigured) Complete(context.Context, string, int) (string, error) {
	return "", ErrNotConfigured
}

// Message is the instruction shown instead of a synopsis.
func (u Unconfigured) Message() string {
	key := u.KeyName
	if key == "" {
		key = "ANTHROPIC_API_KEY"
	}
	return fmt.Sprintf("AI summaries are not configured. Set %s to enable them.", key)
}

// NewCompleter builds the configured provider client once per process. A
// missing key yields Unconfigured rather than an error.
func NewCompleter(ctx context.Context, cfg types.AIConfig, client *http.Client) (Completer, error) {
	switch cfg.Provider {
	case types.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Unconfigured{KeyName: "GEMINI_API_KEY"}, nil
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, client)
	case types.ProviderAnthropic, "":
		if cfg.AnthropicAPIKey == "" {
			return Unconfigured{KeyName: "ANTHROPIC_API_KEY"}, nil
		}
		return &AnthropicClient{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
			Client:  client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm_provider %q", cfg.Provider)
	}
}
