// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/work-output/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Serve exposes GET /api/artifacts, POST /api/summarize, and GET /health
for the dashboard. Required credentials are validated at startup; optional
integrations (Greenhouse, AI summaries, run history) are enabled when
configured.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadValidatedConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg, cleanup, err := buildAggregator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting server",
		zap.String("version", version),
		zap.Bool("ai_summaries", cfg.AI.Enabled),
		zap.String("llm_provider", string(cfg.AI.Provider)),
		zap.Bool("greenhouse", cfg.Greenhouse.APIKey != ""),
		zap.Bool("history", cfg.HistoryDB != ""),
	)
	return api.New(agg, cfg.CORSOrigin, logger).Run(ctx, addr)
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address")

	rootCmd.AddCommand(serveCmd)
}
