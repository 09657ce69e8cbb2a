// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/work-output/internal/aggregate"
	"github.com/pdiddy/work-output/internal/api"
	"github.com/pdiddy/work-output/internal/history"
	"github.com/pdiddy/work-output/internal/source"
	"github.com/pdiddy/work-output/internal/summarize"
	"github.com/pdiddy/work-output/pkg/types"
)

// configKeys lists every flat configuration key. Each is bound to the
// upper-cased environment variable of the same name.
var configKeys = []string{
	"github_token",
	"github_username",
	"github_org",
	"github_api_url",
	"atlassian_url",
	"atlassian_email",
	"atlassian_api_token",
	"atlassian_account_id",
	"atlassian_cloud_id",
	"atlassian_auth",
	"confluence_url",
	"greenhouse_api_key",
	"greenhouse_user_id",
	"enable_ai_summaries",
	"llm_provider",
	"anthropic_api_key",
	"anthropic_base_url",
	"anthropic_model",
	"gemini_api_key",
	"gemini_model",
	"http_timeout",
	"http_max_retries",
	"user_agent",
	"pool_size",
	"cors_origin",
	"history_db",
	"log_level",
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("atlassian_auth", string(types.AuthAuto))
	v.SetDefault("enable_ai_summaries", false)
	v.SetDefault("llm_provider", string(types.ProviderAnthropic))
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("http_max_retries", 0)
	v.SetDefault("user_agent", "work-output/"+version)
	v.SetDefault("pool_size", aggregate.MinPoolSize)
	v.SetDefault("cors_origin", api.DefaultCORSOrigin)
	v.SetDefault("log_level", "info")
}

// loadConfig decodes the merged viper settings into a Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// buildSummarizer wires the configured language-model backend. An
// unconfigured backend still yields a Summarizer that explains what is
// missing.
func buildSummarizer(ctx context.Context, cfg types.Config, client *http.Client, logger *zap.Logger) (*summarize.Summarizer, error) {
	completer, err := summarize.NewCompleter(ctx, cfg.AI, client)
	if err != nil {
		return nil, err
	}
	return summarize.New(cfg.AI.Enabled, completer, logger), nil
}

// buildAggregator constructs the sources, the summarizer, and the optional
// history store from cfg. The returned cleanup closes the history store.
func buildAggregator(ctx context.Context, cfg types.Config, logger *zap.Logger) (*aggregate.Aggregator, func(), error) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	auth := source.NewAtlassianAuth(cfg.Atlassian)

	summarizer, err := buildSummarizer(ctx, cfg, client, logger)
	if err != nil {
		return nil, nil, err
	}

	agg := &aggregate.Aggregator{
		GitHub: &source.GitHub{
			Client:    client,
			Token:     cfg.GitHub.Token,
			Username:  cfg.GitHub.Username,
			Org:       cfg.GitHub.Org,
			BaseURL:   cfg.GitHub.APIURL,
			UserAgent: cfg.HTTP.UserAgent,
			Logger:    logger,
		},
		Confluence: &source.Confluence{
			Client:        client,
			Auth:          auth,
			AccountID:     cfg.Atlassian.AccountID,
			SiteURL:       cfg.Atlassian.URL,
			ConfluenceURL: cfg.Atlassian.ConfluenceURL,
			MaxRetries:    cfg.HTTP.MaxRetries,
			UserAgent:     cfg.HTTP.UserAgent,
			Logger:        logger,
		},
		Jira: &source.Jira{
			Client:     client,
			Auth:       auth,
			AccountID:  cfg.Atlassian.AccountID,
			SiteURL:    cfg.Atlassian.URL,
			MaxRetries: cfg.HTTP.MaxRetries,
			UserAgent:  cfg.HTTP.UserAgent,
			Logger:     logger,
		},
		Greenhouse: &source.Greenhouse{
			Client:    client,
			APIKey:    cfg.Greenhouse.APIKey,
			UserID:    cfg.Greenhouse.UserID,
			UserAgent: cfg.HTTP.UserAgent,
			Logger:    logger,
		},
		Summarizer: summarizer,
		PoolSize:   cfg.PoolSize,
		Logger:     logger,
	}

	cleanup := func() {}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, nil, err
		}
		agg.Recorder = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing history store", zap.Error(err))
			}
		}
	}
	return agg, cleanup, nil
}

// loadValidatedConfig decodes and validates the global configuration.
func loadValidatedConfig() (types.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
