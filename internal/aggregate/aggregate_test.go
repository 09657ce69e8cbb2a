// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/work-output/internal/source"
	"github.com/pdiddy/work-output/internal/summarize"
	"github.com/pdiddy/work-output/pkg/types"
)

func TestMain(m *testing.M) {
	// opencensus, pulled in through the genai client, starts a worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// --- mock source ---

type mockSource[T any] struct {
	name  string
	items []T
	err   error
	panic any
	delay time.Duration
	calls atomic.Int32
}

func (m *mockSource[T]) Name() string { return m.name }

func (m *mockSource[T]) Fetch(ctx context.Context, _ source.DateRange) ([]T, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.panic != nil {
		panic(m.panic)
	}
	return m.items, m.err
}

// --- mock recorder ---

type mockRecorder struct {
	mu   sync.Mutex
	runs []types.RunRecord
	err  error
}

func (m *mockRecorder) Record(_ context.Context, run types.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

type fixture struct {
	github     *mockSource[source.PullRequest]
	confluence *mockSource[source.Document]
	jira       *mockSource[source.Ticket]
	greenhouse *mockSource[source.Interview]
	logs       *observer.ObservedLogs
	agg        *Aggregator
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func january() source.DateRange {
	return source.NewDateRange(day("2024-01-01"), day("2024-01-31"))
}

func newFixture() *fixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		github: &mockSource[source.PullRequest]{name: "github", items: []source.PullRequest{
			{Title: "Add retry budget", URL: "https://github.com/acme/api/pull/12", Repo: "acme/api", State: "merged",
				CreatedAt: day("2024-01-20"), Body: "Caps retries at three."},
			{Title: "Docs", URL: "https://github.com/acme/web/pull/3", Repo: "acme/web", State: "open",
				CreatedAt: day("2024-01-05")},
		}},
		confluence: &mockSource[source.Document]{name: "confluence", items: []source.Document{
			{ID: "1", Title: "Retry design", URL: "https://acme.atlassian.net/wiki/spaces/ENG/pages/1", Space: "ENG",
				CreatedAt: day("2024-01-10"), Excerpt: "How retries work."},
		}},
		jira: &mockSource[source.Ticket]{name: "jira", items: []source.Ticket{
			{Key: "OPS-9", Title: "Pager noise", URL: "https://acme.atlassian.net/browse/OPS-9", Status: "Done", Type: "Bug",
				CreatedAt: day("2024-01-15"),
				Description: json.RawMessage(`{"type":"doc","content":[{"type":"paragraph","content":[
					{"type":"text","text":"Too"},{"type":"text","text":"many pages"}]}]}`)},
		}},
		greenhouse: &mockSource[source.Interview]{name: "greenhouse", items: []source.Interview{
			{ID: "501", CandidateName: "Ada", JobTitle: "Staff Engineer", InterviewType: "System Design",
				ScheduledAt: "2024-01-12", Status: "complete", Organizer: "Riley"},
		}},
		logs: logs,
	}
	f.agg = &Aggregator{
		GitHub:     f.github,
		Confluence: f.confluence,
		Jira:       f.jira,
		Greenhouse: f.greenhouse,
		Summarizer: summarize.New(false, nil, nil),
		Logger:     zap.New(core),
	}
	return f
}

// --- GetArtifacts ---

func TestGetArtifactsNormalizes(t *testing.T) {
	f := newFixture()
	resp := f.agg.GetArtifacts(context.Background(), january(), All())

	require.Len(t, resp.PullRequests, 2)
	assert.Equal(t, types.PullRequest{
		Title: "Add retry budget", URL: "https://github.com/acme/api/pull/12", Repo: "acme/api",
		State: "merged", CreatedAt: "2024-01-20", Summary: "Caps retries at three.",
	}, resp.PullRequests[0])
	assert.Equal(t, summarize.NoDescription, resp.PullRequests[1].Summary)

	require.Len(t, resp.ConfluenceDocs, 1)
	assert.Equal(t, "2024-01-10", resp.ConfluenceDocs[0].CreatedAt)
	assert.Equal(t, "How retries work.", resp.ConfluenceDocs[0].Summary)

	require.Len(t, resp.JiraTickets, 1)
	assert.Equal(t, "Too many pages", resp.JiraTickets[0].Summary)
	assert.Equal(t, "Bug", resp.JiraTickets[0].Type)

	require.Len(t, resp.Interviews, 1)
	assert.Equal(t, []string{}, resp.Interviews[0].Interviewers)
	assert.Equal(t, "Riley", resp.Interviews[0].Organizer)
}

func TestGetArtifactsTruncatesLongBodies(t *testing.T) {
	f := newFixture()
	f.github.items = []source.PullRequest{{Title: "big", URL: "u", Body: strings.Repeat("z", 500)}}
	resp := f.agg.GetArtifacts(context.Background(), january(), Selection{GitHub: true})
	require.Len(t, resp.PullRequests, 1)
	assert.Equal(t, strings.Repeat("z", 200)+"...", resp.PullRequests[0].Summary)
}

func TestGetArtifactsOnlyInvokesSelectedSources(t *testing.T) {
	f := newFixture()
	sel, err := ParseSources("jira")
	require.NoError(t, err)

	resp := f.agg.GetArtifacts(context.Background(), january(), sel)
	assert.Len(t, resp.JiraTickets, 1)
	assert.Empty(t, resp.PullRequests)
	assert.Empty(t, resp.ConfluenceDocs)
	assert.Empty(t, resp.Interviews)

	assert.Equal(t, int32(1), f.jira.calls.Load())
	assert.Zero(t, f.github.calls.Load())
	assert.Zero(t, f.confluence.calls.Load())
	assert.Zero(t, f.greenhouse.calls.Load())
}

func TestGetArtifactsEndToEndGitHubAndJira(t *testing.T) {
	f := newFixture()
	sel, err := ParseSources("github,jira")
	require.NoError(t, err)
	r, err := source.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	resp := f.agg.GetArtifacts(context.Background(), r, sel)
	assert.Len(t, resp.PullRequests, 2)
	assert.Len(t, resp.JiraTickets, 1)
	assert.NotNil(t, resp.ConfluenceDocs)
	assert.Empty(t, resp.ConfluenceDocs)
	assert.NotNil(t, resp.Interviews)
	assert.Empty(t, resp.Interviews)
	for _, pr := range resp.PullRequests {
		assert.NotEmpty(t, pr.Summary)
	}
	assert.NotEmpty(t, resp.JiraTickets[0].Summary)
}

// TestGetArtifactsIsolatesEveryFailureCombination fails each subset of the
// sources and checks the rest still contribute.
func TestGetArtifactsIsolatesEveryFailureCombination(t *testing.T) {
	boom := errors.New("upstream exploded")
	for mask := 0; mask < 1<<len(allSources); mask++ {
		failing := func(i int) bool { return mask&(1<<i) != 0 }
		t.Run(fmt.Sprintf("mask=%04b", mask), func(t *testing.T) {
			f := newFixture()
			if failing(0) {
				f.github.err = boom
			}
			if failing(1) {
				f.confluence.err = boom
			}
			if failing(2) {
				f.jira.panic = "nil map write"
			}
			if failing(3) {
				f.greenhouse.err = boom
			}

			resp := f.agg.GetArtifacts(context.Background(), january(), All())

			assert.Equal(t, failing(0), len(resp.PullRequests) == 0)
			assert.Equal(t, failing(1), len(resp.ConfluenceDocs) == 0)
			assert.Equal(t, failing(2), len(resp.JiraTickets) == 0)
			assert.Equal(t, failing(3), len(resp.Interviews) == 0)

			wantErrors := 0
			for i := range allSources {
				if failing(i) {
					wantErrors++
				}
			}
			assert.Equal(t, wantErrors, f.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestGetArtifactsLogsSourceAndRunID(t *testing.T) {
	f := newFixture()
	f.confluence.err = errors.New("HTTP 502")
	f.agg.GetArtifacts(context.Background(), january(), All())

	entries := f.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "confluence", fields["source"])
	assert.NotEmpty(t, fields["run_id"])
	assert.Equal(t, "HTTP 502", fields["error"])
}

func TestGetArtifactsRunsSourcesConcurrently(t *testing.T) {
	f := newFixture()
	f.github.delay = 200 * time.Millisecond
	f.confluence.delay = 200 * time.Millisecond
	f.jira.delay = 200 * time.Millisecond
	f.greenhouse.delay = 200 * time.Millisecond

	start := time.Now()
	f.agg.GetArtifacts(context.Background(), january(), All())
	assert.Less(t, time.Since(start), 700*time.Millisecond)
}

func TestGetArtifactsSkipsNilSources(t *testing.T) {
	agg := &Aggregator{Jira: newFixture().jira}
	resp := agg.GetArtifacts(context.Background(), january(), nil)
	assert.Len(t, resp.JiraTickets, 1)
	assert.Empty(t, resp.PullRequests)
}

func TestGetArtifactsNilItemsBecomeEmpty(t *testing.T) {
	f := newFixture()
	f.github.items = nil
	resp := f.agg.GetArtifacts(context.Background(), january(), Selection{GitHub: true})
	assert.NotNil(t, resp.PullRequests)
	assert.Empty(t, resp.PullRequests)
}

func TestGetArtifactsRecordsHistory(t *testing.T) {
	f := newFixture()
	rec := &mockRecorder{}
	f.agg.Recorder = rec
	f.confluence.err = errors.New("timeout")

	sel, err := ParseSources("confluence, GitHub")
	require.NoError(t, err)
	f.agg.GetArtifacts(context.Background(), january(), sel)

	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "2024-01-01", run.StartDate)
	assert.Equal(t, "2024-01-31", run.EndDate)
	assert.Equal(t, []string{"github", "confluence"}, run.Sources)
	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "github", run.Outcomes[0].Source)
	assert.Equal(t, 2, run.Outcomes[0].Items)
	assert.False(t, run.Outcomes[0].Failed())
	assert.Equal(t, "confluence", run.Outcomes[1].Source)
	assert.Equal(t, "timeout", run.Outcomes[1].Error)
	assert.Equal(t, 1, run.Failures())
}

func TestGetArtifactsFilesOutcomesUnderTheirSource(t *testing.T) {
	f := newFixture()
	rec := &mockRecorder{}
	f.agg.Recorder = rec
	f.jira.err = errors.New("jira down")

	f.agg.GetArtifacts(context.Background(), january(), All())

	require.Len(t, rec.runs, 1)
	outcomes := rec.runs[0].Outcomes
	require.Len(t, outcomes, len(allSources))
	for i, n := range allSources {
		assert.Equal(t, i, n.slot())
		assert.Equal(t, string(n), outcomes[i].Source)
	}
	assert.Equal(t, "jira down", outcomes[Jira.slot()].Error)
	assert.Equal(t, 1, outcomes[Greenhouse.slot()].Items)
	assert.Equal(t, -1, Name("gitlab").slot())
}

func TestGetArtifactsRecorderFailureIsLogged(t *testing.T) {
	f := newFixture()
	f.agg.Recorder = &mockRecorder{err: errors.New("disk full")}
	resp := f.agg.GetArtifacts(context.Background(), january(), All())
	assert.Len(t, resp.PullRequests, 2)
	assert.Equal(t, 1, f.logs.FilterMessage("recording run history failed").Len())
}

func TestRunIsolatedRecoversPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	src := &mockSource[source.Ticket]{name: "jira", panic: "kaboom"}
	var out types.SourceOutcome

	items := runIsolated(context.Background(), zap.New(core), src, january(), &out)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, "panic: kaboom", out.Error)
	assert.Equal(t, "jira", out.Source)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "source panicked", logs.All()[0].Message)
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		configured, selected, want int
	}{
		{0, 4, 4},
		{2, 1, 4},
		{8, 4, 8},
		{4, 6, 6},
	}
	for _, tt := range tests {
		a := &Aggregator{PoolSize: tt.configured}
		assert.Equal(t, tt.want, a.poolSize(tt.selected))
	}
}

// --- SummarizeArtifacts ---

type countingCompleter struct{ calls int }

func (c *countingCompleter) Complete(context.Context, string, int) (string, error) {
	c.calls++
	return "You kept the pager quiet.", nil
}

func TestSummarizeArtifactsEmptySkipsModel(t *testing.T) {
	c := &countingCompleter{}
	agg := &Aggregator{Summarizer: summarize.New(true, c, nil)}
	assert.Equal(t, NoArtifacts, agg.SummarizeArtifacts(context.Background(), types.NewArtifactsResponse()))
	assert.Zero(t, c.calls)
}

func TestSummarizeArtifactsCallsModelOnce(t *testing.T) {
	c := &countingCompleter{}
	agg := &Aggregator{Summarizer: summarize.New(true, c, nil)}
	resp := types.NewArtifactsResponse()
	resp.JiraTickets = []types.JiraTicket{{Key: "OPS-9", Title: "Pager noise", Status: "Done", Summary: "s"}}

	assert.Equal(t, "You kept the pager quiet.", agg.SummarizeArtifacts(context.Background(), resp))
	assert.Equal(t, 1, c.calls)
}

func TestSummarizeArtifactsWithoutSummarizer(t *testing.T) {
	resp := types.NewArtifactsResponse()
	resp.Interviews = []types.Interview{{CandidateName: "Ada"}}
	assert.Equal(t, summarize.MsgDisabled, (&Aggregator{}).SummarizeArtifacts(context.Background(), resp))
}
