// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans a date-range query out to the selected sources,
// isolates their failures, and normalizes the results into one response.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/work-output/internal/adf"
	"github.com/pdiddy/work-output/internal/source"
	"github.com/pdiddy/work-output/internal/summarize"
	"github.com/pdiddy/work-output/pkg/types"
)

// MinPoolSize is the smallest worker pool an aggregation runs with. It
// matches the number of source kinds so no selected source waits on another.
const MinPoolSize = 4

// NoArtifacts is returned by SummarizeArtifacts for an empty response.
const NoArtifacts = "No artifacts to summarize."

// Recorder persists per-run source outcomes. Implementations must not block
// for long; failures are logged and ignored.
type Recorder interface {
	Record(ctx context.Context, run types.RunRecord) error
}

// Aggregator owns the four sources and the summarizer. A nil source is
// treated as unconfigured and never invoked.
type Aggregator struct {
	GitHub     source.Source[source.PullRequest]
	Confluence source.Source[source.Document]
	Jira       source.Source[source.Ticket]
	Greenhouse source.Source[source.Interview]

	Summarizer *summarize.Summarizer

	// PoolSize bounds concurrent source fetches. Values below MinPoolSize
	// or the number of selected sources are raised to fit.
	PoolSize int

	// Recorder is optional.
	Recorder Recorder

	Logger *zap.Logger
}

// GetArtifacts fetches every selected source concurrently and blocks until
// all of them finish. A failing or panicking source contributes an empty
// list and never affects the others. A nil sel selects every source.
func (a *Aggregator) GetArtifacts(ctx context.Context, r source.DateRange, sel Selection) types.ArtifactsResponse {
	if sel == nil {
		sel = All()
	}
	runID := uuid.NewString()
	started := time.Now()
	log := a.logger().With(zap.String("run_id", runID))

	var (
		prs        []source.PullRequest
		docs       []source.Document
		tickets    []source.Ticket
		interviews []source.Interview

		// Indexed by position in allSources; each task writes only its own slot.
		outcomes [len(allSources)]*types.SourceOutcome
	)

	g := new(errgroup.Group)
	g.SetLimit(a.poolSize(sel.Len()))

	dispatch := func(n Name, run func(out *types.SourceOutcome)) {
		out := &types.SourceOutcome{}
		outcomes[n.slot()] = out
		g.Go(func() error {
			run(out)
			return nil
		})
	}
	if sel.Has(GitHub) && a.GitHub != nil {
		dispatch(GitHub, func(out *types.SourceOutcome) {
			prs = runIsolated(ctx, log, a.GitHub, r, out)
		})
	}
	if sel.Has(Confluence) && a.Confluence != nil {
		dispatch(Confluence, func(out *types.SourceOutcome) {
			docs = runIsolated(ctx, log, a.Confluence, r, out)
		})
	}
	if sel.Has(Jira) && a.Jira != nil {
		dispatch(Jira, func(out *types.SourceOutcome) {
			tickets = runIsolated(ctx, log, a.Jira, r, out)
		})
	}
	if sel.Has(Greenhouse) && a.Greenhouse != nil {
		dispatch(Greenhouse, func(out *types.SourceOutcome) {
			interviews = runIsolated(ctx, log, a.Greenhouse, r, out)
		})
	}
	_ = g.Wait()

	resp := types.NewArtifactsResponse()
	for _, pr := range prs {
		resp.PullRequests = append(resp.PullRequests, normalizePullRequest(pr))
	}
	for _, d := range docs {
		resp.ConfluenceDocs = append(resp.ConfluenceDocs, normalizeDocument(d))
	}
	for _, t := range tickets {
		resp.JiraTickets = append(resp.JiraTickets, normalizeTicket(t))
	}
	for _, iv := range interviews {
		resp.Interviews = append(resp.Interviews, normalizeInterview(iv))
	}

	log.Info("artifacts aggregated",
		zap.Stringer("range", r),
		zap.Strings("sources", sel.Names()),
		zap.Int("pull_requests", len(resp.PullRequests)),
		zap.Int("confluence_docs", len(resp.ConfluenceDocs)),
		zap.Int("jira_tickets", len(resp.JiraTickets)),
		zap.Int("interviews", len(resp.Interviews)),
		zap.Duration("elapsed", time.Since(started)))

	if a.Recorder != nil {
		run := types.RunRecord{
			ID:        runID,
			StartedAt: started.UTC(),
			StartDate: r.StartDay(),
			EndDate:   r.EndDay(),
			Sources:   sel.Names(),
		}
		for _, o := range outcomes {
			if o != nil {
				run.Outcomes = append(run.Outcomes, *o)
			}
		}
		if err := a.Recorder.Record(ctx, run); err != nil {
			log.Warn("recording run history failed", zap.Error(err))
		}
	}
	return resp
}

// SummarizeArtifacts produces the aggregate synopsis for already-fetched
// artifacts. An empty response short-circuits without a model call.
func (a *Aggregator) SummarizeArtifacts(ctx context.Context, resp types.ArtifactsResponse) string {
	if resp.IsEmpty() {
		return NoArtifacts
	}
	s := a.Summarizer
	if s == nil {
		s = summarize.New(false, nil, a.logger())
	}
	return s.Many(ctx, summarize.Digest(resp))
}

// runIsolated fetches from src, turning an error or panic into an empty
// list logged at error level. It records the outcome into out.
func runIsolated[T any](ctx context.Context, log *zap.Logger, src source.Source[T], r source.DateRange, out *types.SourceOutcome) (items []T) {
	name := src.Name()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("source panicked",
				zap.String("source", name), zap.Any("panic", p), zap.Stack("stack"))
			items = []T{}
			out.Error = fmt.Sprintf("panic: %v", p)
		}
		out.Source = name
		out.Items = len(items)
		out.Duration = time.Since(start)
	}()

	got, err := src.Fetch(ctx, r)
	if err != nil {
		log.Error("source fetch failed", zap.String("source", name), zap.Error(err))
		out.Error = err.Error()
		return []T{}
	}
	if got == nil {
		got = []T{}
	}
	log.Debug("source fetched", zap.String("source", name), zap.Int("items", len(got)))
	return got
}

func (a *Aggregator) poolSize(selected int) int {
	return max(a.PoolSize, MinPoolSize, selected)
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func normalizePullRequest(pr source.PullRequest) types.PullRequest {
	return types.PullRequest{
		Title:     pr.Title,
		URL:       pr.URL,
		Repo:      pr.Repo,
		State:     pr.State,
		CreatedAt: formatDay(pr.CreatedAt),
		Summary:   summarize.One(pr.Body),
	}
}

func normalizeDocument(d source.Document) types.ConfluenceDoc {
	return types.ConfluenceDoc{
		Title:     d.Title,
		URL:       d.URL,
		Space:     d.Space,
		CreatedAt: formatDay(d.CreatedAt),
		Summary:   summarize.One(d.Excerpt),
	}
}

func normalizeTicket(t source.Ticket) types.JiraTicket {
	return types.JiraTicket{
		Key:     t.Key,
		Title:   t.Title,
		URL:     t.URL,
		Status:  t.Status,
		Type:    t.Type,
		Summary: summarize.One(adf.Text(t.Description)),
	}
}

func normalizeInterview(iv source.Interview) types.Interview {
	interviewers := iv.Interviewers
	if interviewers == nil {
		interviewers = []string{}
	}
	return types.Interview{
		ID:            iv.ID,
		CandidateName: iv.CandidateName,
		JobTitle:      iv.JobTitle,
		InterviewType: iv.InterviewType,
		ScheduledAt:   iv.ScheduledAt,
		Status:        iv.Status,
		Interviewers:  interviewers,
		Organizer:     iv.Organizer,
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
