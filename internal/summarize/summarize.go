// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize shortens artifact text and produces the aggregate
// synopsis. Per-artifact summaries never call a language model; the synopsis
// is the only model call a request can make.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/work-output/internal/httputil"
	"github.com/pdiddy/work-output/pkg/types"
)

const (
	// maxSummaryRunes is the budget for a per-artifact summary.
	maxSummaryRunes = 200

	// digestItemsPerKind caps how many items of each kind enter the digest.
	digestItemsPerKind = 20

	// digestSummaryRunes shortens each item's summary inside the digest.
	digestSummaryRunes = 100

	// synopsisMaxTokens is the output budget for the aggregate synopsis.
	synopsisMaxTokens = 300
)

// User-facing messages returned by Many instead of an error.
const (
	NoDescription   = "No description provided."
	MsgDisabled     = "AI summaries are disabled. Set ENABLE_AI_SUMMARIES=true to enable them."
	MsgUnauthorized = "AI summary unavailable: the language model rejected the API key (401). Check the configured key."
	MsgForbidden    = "AI summary unavailable: the API key does not have permission to use this model (403)."
	MsgRateLimited  = "AI summary unavailable: the language model rate limit was reached. Try again in a minute."
	msgFailedFmt    = "AI summary unavailable: %v"
)

var synopsisPromptTmpl = template.Must(template.New("synopsis").Parse(`You are helping someone review their own recent work output. Below is a digest of the pull requests, documents, tickets and interviews they produced.

Write a 2-3 sentence synthesis of what they accomplished, addressed to them in the second person ("you"). Focus on themes and impact rather than listing items. Do not use headings, bullet points, lists or markdown.

{{.Digest}}`))

// One returns content trimmed and cut to 200 characters with "..." appended
// when cut. Blank content yields NoDescription.
func One(content string) string {
	s := strings.TrimSpace(content)
	if s == "" {
		return NoDescription
	}
	return truncate(s, maxSummaryRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Summarizer produces the aggregate synopsis with at most one model call.
type Summarizer struct {
	// Enabled gates model calls entirely.
	Enabled bool

	// Completer is constructed once per process; nil behaves like
	// Unconfigured.
	Completer Completer

	Logger *zap.Logger
}

// New returns a Summarizer around c.
func New(enabled bool, c Completer, logger *zap.Logger) *Summarizer {
	if c == nil {
		c = Unconfigured{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{Enabled: enabled, Completer: c, Logger: logger}
}

// Many asks the model for a short second-person synthesis of digest. It
// never fails: every problem is reported as an explanatory string.
func (s *Summarizer) Many(ctx context.Context, digest string) string {
	if !s.Enabled {
		return MsgDisabled
	}
	c := s.Completer
	if c == nil {
		c = Unconfigured{}
	}
	if u, ok := c.(Unconfigured); ok {
		return u.Message()
	}

	prompt, err := renderPrompt(digest)
	if err != nil {
		return fmt.Sprintf(msgFailedFmt, err)
	}

	text, err := c.Complete(ctx, prompt, synopsisMaxTokens)
	if err != nil {
		s.logger().Warn("aggregate summary failed", zap.Error(err))
		return Describe(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Sprintf(msgFailedFmt, "empty response from language model")
	}
	return text
}

func (s *Summarizer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Failure signals for errors that carry no HTTP status, matched as whole
// words so addresses such as ":4010" never count as a 401.
var (
	unauthorizedText = regexp.MustCompile(`(?i)\b401\b|\bunauthori[sz]ed\b|\bauthentication\b|\binvalid[ _-]?(x-)?api[ _-]?key\b`)
	forbiddenText    = regexp.MustCompile(`(?i)\b403\b|\bforbidden\b|\bpermission[ _]denied\b`)
	rateLimitedText  = regexp.MustCompile(`(?i)\b429\b|\brate[ _-]?limit`)
)

// Describe converts a completion failure into a user-facing message. An
// error wrapping *httputil.StatusError is classified by its status code
// alone; text is only consulted for errors without one.
func Describe(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		var u Unconfigured
		return u.Message()
	}
	if code := httputil.StatusCode(err); code != 0 {
		switch code {
		case http.StatusUnauthorized:
			return MsgUnauthorized
		case http.StatusForbidden:
			return MsgForbidden
		case http.StatusTooManyRequests:
			return MsgRateLimited
		}
		return fmt.Sprintf(msgFailedFmt, err)
	}

	msg := err.Error()
	switch {
	case unauthorizedText.MatchString(msg):
		return MsgUnauthorized
	case forbiddenText.MatchString(msg):
		return MsgForbidden
	case rateLimitedText.MatchString(msg):
		return MsgRateLimited
	}
	return fmt.Sprintf(msgFailedFmt, err)
}

func renderPrompt(digest string) (string, error) {
	var buf bytes.Buffer
	if err := synopsisPromptTmpl.Execute(&buf, struct{ Digest string }{Digest: digest}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Digest condenses a response into title/status/summary lines, at most 20
// items per kind. Kinds with no items are left out.
func Digest(resp types.ArtifactsResponse) string {
	var b strings.Builder

	section(&b, "Pull requests", len(resp.PullRequests), func(i int) string {
		pr := resp.PullRequests[i]
		return fmt.Sprintf("%s [%s] in %s: %s", pr.Title, pr.State, pr.Repo, short(pr.Summary))
	})
	section(&b, "Confluence documents", len(resp.ConfluenceDocs), func(i int) string {
		d := resp.ConfluenceDocs[i]
		return fmt.Sprintf("%s [%s]: %s", d.Title, d.Space, short(d.Summary))
	})
	section(&b, "Jira tickets", len(resp.JiraTickets), func(i int) string {
		t := resp.JiraTickets[i]
		return fmt.Sprintf("%s %s [%s]: %s", t.Key, t.Title, t.Status, short(t.Summary))
	})
	section(&b, "Interviews", len(resp.Interviews), func(i int) string {
		iv := resp.Interviews[i]
		return fmt.Sprintf("%s with %s for %s [%s]", iv.InterviewType, iv.CandidateName, iv.JobTitle, iv.Status)
	})

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, heading string, n int, line func(int) string) {
	if n == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", heading, n)
	for i := 0; i < n && i < digestItemsPerKind; i++ {
		b.WriteString("- ")
		b.WriteString(line(i))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

func short(s string) string {
	return truncate(strings.TrimSpace(s), digestSummaryRunes)
}
