// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/work-output/pkg/types"
)

// Output formats accepted by --format.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// fetchResult is what fetch prints: the artifacts plus an optional synopsis.
type fetchResult struct {
	types.ArtifactsResponse `yaml:",inline"`
	Summary                 string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML, formatTable:
		return nil
	}
	return fmt.Errorf("unknown format %q: valid formats are json, yaml, table", format)
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return checkFormat(format)
}

// renderFetch writes res in format.
func renderFetch(w io.Writer, format string, res fetchResult) error {
	if format != formatTable {
		return encode(w, format, res)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(res.PullRequests) > 0 {
		fmt.Fprintf(tw, "PULL REQUESTS (%d)\n", len(res.PullRequests))
		fmt.Fprintln(tw, "CREATED\tREPO\tSTATE\tTITLE")
		for _, pr := range res.PullRequests {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pr.CreatedAt, pr.Repo, pr.State, pr.Title)
		}
		fmt.Fprintln(tw)
	}
	if len(res.ConfluenceDocs) > 0 {
		fmt.Fprintf(tw, "CONFLUENCE DOCUMENTS (%d)\n", len(res.ConfluenceDocs))
		fmt.Fprintln(tw, "CREATED\tSPACE\tTITLE")
		for _, d := range res.ConfluenceDocs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.CreatedAt, d.Space, d.Title)
		}
		fmt.Fprintln(tw)
	}
	if len(res.JiraTickets) > 0 {
		fmt.Fprintf(tw, "JIRA TICKETS (%d)\n", len(res.JiraTickets))
		fmt.Fprintln(tw, "KEY\tTYPE\tSTATUS\tTITLE")
		for _, t := range res.JiraTickets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Key, t.Type, t.Status, t.Title)
		}
		fmt.Fprintln(tw)
	}
	if len(res.Interviews) > 0 {
		fmt.Fprintf(tw, "INTERVIEWS (%d)\n", len(res.Interviews))
		fmt.Fprintln(tw, "SCHEDULED\tSTATUS\tTYPE\tCANDIDATE\tJOB")
		for _, iv := range res.Interviews {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", iv.ScheduledAt, iv.Status, iv.InterviewType, iv.CandidateName, iv.JobTitle)
		}
		fmt.Fprintln(tw)
	}
	if res.IsEmpty() {
		fmt.Fprintln(tw, "No artifacts found.")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if res.Summary != "" {
		fmt.Fprintf(w, "\nSUMMARY\n%s\n", res.Summary)
	}
	return nil
}

// renderHistory writes runs in format.
func renderHistory(w io.Writer, format string, runs []types.RunRecord) error {
	if format != formatTable {
		if runs == nil {
			runs = []types.RunRecord{}
		}
		return encode(w, format, runs)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRANGE\tSOURCES\tITEMS\tFAILED\tID")
	for _, run := range runs {
		items := 0
		for _, o := range run.Outcomes {
			items += o.Items
		}
		fmt.Fprintf(tw, "%s\t%s..%s\t%s\t%d\t%s\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.StartDate, run.EndDate,
			strings.Join(run.Sources, ","),
			items, failedSources(run), run.ID)
	}
	return tw.Flush()
}

func failedSources(run types.RunRecord) string {
	var failed []string
	for _, o := range run.Outcomes {
		if o.Failed() {
			failed = append(failed, o.Source)
		}
	}
	if len(failed) == 0 {
		return "-"
	}
	return strings.Join(failed, ",")
}

// decodeArtifacts parses a JSON or YAML artifacts document.
func decodeArtifacts(data []byte) (types.ArtifactsResponse, error) {
	var resp types.ArtifactsResponse
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return resp, fmt.Errorf("artifacts input is empty")
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return resp, fmt.Errorf("parsing artifacts JSON: %w", err)
		}
		return resp, nil
	}
	if err := yaml.Unmarshal(trimmed, &resp); err != nil {
		return resp, fmt.Errorf("parsing artifacts YAML: %w", err)
	}
	return resp, nil
}
