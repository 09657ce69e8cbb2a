package types

import (
	"fmt"
	"strings"
	"time"
)

// AtlassianAuthMode selects how Confluence and Jira requests authenticate.
type AtlassianAuthMode string

const (
	// AuthAuto picks bearer when a cloud ID is configured and basic otherwise.
	AuthAuto AtlassianAuthMode = "auto"

	// AuthBearer sends the API token as a bearer token to the
	// api.atlassian.com gateway, addressed by cloud ID (scoped tokens).
	AuthBearer AtlassianAuthMode = "bearer"

	// AuthBasic sends email and API token as basic auth directly to the
	// tenant URL.
	AuthBasic AtlassianAuthMode = "basic"
)

// LLMProvider names the language-model backend used for aggregate summaries.
type LLMProvider string

const (
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
)

// HTTPConfig holds shared HTTP settings used by the source adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout for adapters that do not set
	// their own.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"http_timeout"`

	// MaxRetries is the number of 429 retries for the Atlassian adapters.
	// Zero means a single attempt. GitHub is never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"http_max_retries"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// GitHubConfig identifies whose pull requests are collected.
type GitHubConfig struct {
	Token    string `json:"-" yaml:"-" mapstructure:"github_token"`
	Username string `json:"username" yaml:"username" mapstructure:"github_username"`

	// Org optionally restricts the search to one organization.
	Org string `json:"org,omitempty" yaml:"org,omitempty" mapstructure:"github_org"`

	// APIURL overrides https://api.github.com (GitHub Enterprise).
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty" mapstructure:"github_api_url"`
}

// AtlassianConfig is shared by the Confluence and Jira adapters.
type AtlassianConfig struct {
	// URL is the tenant base URL (e.g. https://acme.atlassian.net). Browse
	// links for tickets and space-path page links are built from it.
	URL       string            `json:"url" yaml:"url" mapstructure:"atlassian_url"`
	Email     string            `json:"email" yaml:"email" mapstructure:"atlassian_email"`
	APIToken  string            `json:"-" yaml:"-" mapstructure:"atlassian_api_token"`
	AccountID string            `json:"account_id" yaml:"account_id" mapstructure:"atlassian_account_id"`
	CloudID   string            `json:"cloud_id" yaml:"cloud_id" mapstructure:"atlassian_cloud_id"`
	Auth      AtlassianAuthMode `json:"auth" yaml:"auth" mapstructure:"atlassian_auth"`

	// ConfluenceURL is an optional separate Confluence base URL. When set,
	// page links use the viewpage.action?pageId= form against it.
	ConfluenceURL string `json:"confluence_url,omitempty" yaml:"confluence_url,omitempty" mapstructure:"confluence_url"`
}

// ResolvedAuth returns the effective auth mode, resolving AuthAuto.
func (c AtlassianConfig) ResolvedAuth() AtlassianAuthMode {
	switch c.Auth {
	case AuthBearer, AuthBasic:
		return c.Auth
	}
	if c.CloudID != "" {
		return AuthBearer
	}
	return AuthBasic
}

// GreenhouseConfig enables the optional interview source.
type GreenhouseConfig struct {
	// APIKey is the Harvest API key. Empty disables the source.
	APIKey string `json:"-" yaml:"-" mapstructure:"greenhouse_api_key"`

	// UserID restricts interviews to those the user conducts or organizes.
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty" mapstructure:"greenhouse_user_id"`
}

// AIConfig holds the language-model settings for aggregate summaries.
type AIConfig struct {
	// Enabled gates every model call.
	Enabled  bool        `json:"enabled" yaml:"enabled" mapstructure:"enable_ai_summaries"`
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"llm_provider"`

	AnthropicAPIKey  string `json:"-" yaml:"-" mapstructure:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url,omitempty" yaml:"anthropic_base_url,omitempty" mapstructure:"anthropic_base_url"`
	AnthropicModel   string `json:"anthropic_model" yaml:"anthropic_model" mapstructure:"anthropic_model"`

	GeminiAPIKey string `json:"-" yaml:"-" mapstructure:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model" yaml:"gemini_model" mapstructure:"gemini_model"`
}

// Config groups everything the service needs.
type Config struct {
	GitHub     GitHubConfig     `json:"github" yaml:"github" mapstructure:",squash"`
	Atlassian  AtlassianConfig  `json:"atlassian" yaml:"atlassian" mapstructure:",squash"`
	Greenhouse GreenhouseConfig `json:"greenhouse" yaml:"greenhouse" mapstructure:",squash"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:",squash"`
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:",squash"`

	// PoolSize bounds concurrent source fetches per aggregation (default 4).
	PoolSize int `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`

	// CORSOrigin is the dashboard origin allowed by the HTTP server.
	CORSOrigin string `json:"cors_origin" yaml:"cors_origin" mapstructure:"cors_origin"`

	// HistoryDB is the SQLite run-log path. Empty disables run history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty" mapstructure:"history_db"`

	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Validate reports missing required settings. A non-nil error is fatal at
// startup; optional integrations are never validated here.
func (c Config) Validate() error {
	var missing []string
	required := []struct {
		key, value string
	}{
		{"github_token", c.GitHub.Token},
		{"github_username", c.GitHub.Username},
		{"atlassian_url", c.Atlassian.URL},
		{"atlassian_account_id", c.Atlassian.AccountID},
		{"atlassian_api_token", c.Atlassian.APIToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Atlassian.Auth {
	case "", AuthAuto, AuthBearer, AuthBasic:
	default:
		return fmt.Errorf("atlassian_auth must be auto, bearer, or basic, got %q", c.Atlassian.Auth)
	}
	switch c.Atlassian.ResolvedAuth() {
	case AuthBearer:
		if c.Atlassian.CloudID == "" {
			return fmt.Errorf("atlassian_auth=bearer requires atlassian_cloud_id")
		}
	case AuthBasic:
		if c.Atlassian.Email == "" {
			return fmt.Errorf("atlassian_auth=basic requires atlassian_email")
		}
	}

	switch c.AI.Provider {
	case "", ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("llm_provider must be anthropic or gemini, got %q", c.AI.Provider)
	}
	return nil
}
