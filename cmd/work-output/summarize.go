// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/work-output/internal/aggregate"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a saved artifacts document",
	Long: `Summarize reads an artifacts document (the JSON or YAML printed by
fetch, or a saved /api/artifacts response) and prints a short synopsis.
Source credentials are not needed; only the language-model settings are used.

Use --input - to read from stdin.`,
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}

	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	resp, err := decodeArtifacts(data)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	ctx := context.Background()
	summarizer, err := buildSummarizer(ctx, cfg, &http.Client{Timeout: cfg.HTTP.Timeout}, logger)
	if err != nil {
		return err
	}

	agg := &aggregate.Aggregator{Summarizer: summarizer, Logger: logger}
	fmt.Fprintln(cmd.OutOrStdout(), agg.SummarizeArtifacts(ctx, resp))
	return nil
}

func init() {
	summarizeCmd.Flags().String("input", "", "artifacts file (JSON or YAML), or - for stdin")

	rootCmd.AddCommand(summarizeCmd)
}
