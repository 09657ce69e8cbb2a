// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/work-output/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent aggregation runs",
	Long: `History prints the most recent aggregation runs recorded in the SQLite
run log, newest first, with per-source item counts and failures. Run
recording is enabled by setting history_db (HISTORY_DB).`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.HistoryDB == "" {
		return fmt.Errorf("run history is disabled: set history_db (HISTORY_DB) to a SQLite path")
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	return renderHistory(cmd.OutOrStdout(), format, runs)
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().String("format", formatTable, "output format: json, yaml, or table")

	rootCmd.AddCommand(historyCmd)
}
