// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/work-output/internal/aggregate"
	"github.com/pdiddy/work-output/internal/source"
)

// defaultLookbackDays is the range fetch covers when --from is omitted,
// counting the end day.
const defaultLookbackDays = 7

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch artifacts for a date range and print them",
	Long: `Fetch runs one aggregation across the selected sources and prints the
result. Both range ends are inclusive calendar days (YYYY-MM-DD). Without
--from and --to the last seven days are fetched.

A failing source contributes an empty list; the other sources are unaffected.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	sources, _ := cmd.Flags().GetString("sources")
	format, _ := cmd.Flags().GetString("format")
	withSummary, _ := cmd.Flags().GetBool("summary")

	if err := checkFormat(format); err != nil {
		return err
	}
	from, to = defaultRange(from, to, time.Now())
	dr, err := source.ParseDateRange(from, to)
	if err != nil {
		return err
	}
	sel, err := aggregate.ParseSources(sources)
	if err != nil {
		return err
	}

	cfg, err := loadValidatedConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	agg, cleanup, err := buildAggregator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	res := fetchResult{ArtifactsResponse: agg.GetArtifacts(ctx, dr, sel)}
	if withSummary {
		res.Summary = agg.SummarizeArtifacts(ctx, res.ArtifactsResponse)
	}
	return renderFetch(cmd.OutOrStdout(), format, res)
}

// defaultRange fills an empty end with today and an empty start with the
// day that makes the range defaultLookbackDays long.
func defaultRange(from, to string, now time.Time) (string, string) {
	if to == "" {
		to = now.Format(time.DateOnly)
	}
	if from == "" {
		end, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return from, to
		}
		from = end.AddDate(0, 0, -(defaultLookbackDays - 1)).Format(time.DateOnly)
	}
	return from, to
}

func init() {
	fetchCmd.Flags().String("from", "", "range start (YYYY-MM-DD, default: six days before --to)")
	fetchCmd.Flags().String("to", "", "range end, inclusive (YYYY-MM-DD, default: today)")
	fetchCmd.Flags().String("sources", "", "comma-separated sources: github, confluence, jira, greenhouse (default: all)")
	fetchCmd.Flags().String("format", formatTable, "output format: json, yaml, or table")
	fetchCmd.Flags().Bool("summary", false, "append an AI synopsis of the fetched artifacts")

	rootCmd.AddCommand(fetchCmd)
}
