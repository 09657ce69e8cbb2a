// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/work-output/internal/httputil"
)

// githubAPIBase is the GitHub REST root. Declared as a var so tests can
// substitute an httptest server.
var githubAPIBase = "https://api.github.com"

// GitHub searches pull requests authored by one user.
type GitHub struct {
	Client   *http.Client
	Token    string
	Username string
	// Org optionally restricts results to one organization.
	Org string
	// BaseURL overrides githubAPIBase (GitHub Enterprise).
	BaseURL   string
	UserAgent string
	Logger    *zap.Logger
}

// Name returns the source identifier.
func (g *GitHub) Name() string { return "github" }

// BuildGitHubQuery returns the issue-search query selecting pull requests
// authored by user and created within r.
func BuildGitHubQuery(user, org string, r DateRange) string {
	q := fmt.Sprintf("author:%s is:pr created:%s..%s", user, r.StartDay(), r.EndDay())
	if org != "" {
		q += " org:" + org
	}
	return q
}

// Fetch runs one search and returns up to one page of pull requests, newest
// first. Rate-limited (429) and forbidden (403) responses are logged and
// yield an empty list. Requests are never retried so a rate limit cannot
// stall the aggregation behind a backoff.
func (g *GitHub) Fetch(ctx context.Context, r DateRange) ([]PullRequest, error) {
	log := loggerOrNop(g.Logger)

	base := githubAPIBase
	if g.BaseURL != "" {
		base = strings.TrimRight(g.BaseURL, "/")
	}
	params := url.Values{
		"q":        {BuildGitHubQuery(g.Username, g.Org, r)},
		"sort":     {"created"},
		"order":    {"desc"},
		"per_page": {fmt.Sprintf("%d", pageSize)},
	}
	reqURL := base + "/search/issues?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Authorization", "Bearer "+g.Token)
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(g.Client), req, 0)
	if err != nil {
		return nil, fmt.Errorf("GitHub API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusForbidden:
		log.Warn("GitHub search rate limited or forbidden, returning no pull requests",
			zap.Int("status", resp.StatusCode),
			zap.String("rate_limit_remaining", resp.Header.Get("X-RateLimit-Remaining")),
			zap.String("rate_limit_reset", resp.Header.Get("X-RateLimit-Reset")))
		return []PullRequest{}, nil
	}
	if err := httputil.CheckStatus("GitHub", resp); err != nil {
		return nil, err
	}

	var sr githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing GitHub response: %w", err)
	}
	if sr.IncompleteResults {
		log.Debug("GitHub search returned incomplete results", zap.Int("total_count", sr.TotalCount))
	}

	prs := make([]PullRequest, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.Title == "" || item.HTMLURL == "" {
			continue
		}
		state := item.State
		if item.PullRequest != nil && item.PullRequest.MergedAt != nil {
			state = "merged"
		}
		prs = append(prs, PullRequest{
			Title:     item.Title,
			URL:       item.HTMLURL,
			Repo:      repoFullName(item.RepositoryURL, item.HTMLURL),
			State:     state,
			CreatedAt: item.CreatedAt,
			Body:      item.Body,
		})
	}
	sortNewestFirst(prs, func(p PullRequest) time.Time { return p.CreatedAt })
	return prs, nil
}

// repoFullName derives "owner/name" from the search item itself so no
// per-item repository lookup is needed. repository_url has the form
// https://api.github.com/repos/{owner}/{name}; html_url is the fallback.
func repoFullName(repositoryURL, htmlURL string) string {
	if i := strings.LastIndex(repositoryURL, "/repos/"); i >= 0 {
		if name := strings.Trim(repositoryURL[i+len("/repos/"):], "/"); name != "" {
			return name
		}
	}
	u, err := url.Parse(htmlURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "/" + parts[1]
}

// GitHub API JSON structures.
type githubSearchResponse struct {
	TotalCount        int           `json:"total_count"`
	IncompleteResults bool          `json:"incomplete_results"`
	Items             []githubIssue `json:"items"`
}

type githubIssue struct {
	Title         string          `json:"title"`
	HTMLURL       string          `json:"html_url"`
	State         string          `json:"state"`
	Body          string          `json:"body"`
	CreatedAt     time.Time       `json:"created_at"`
	RepositoryURL string          `json:"repository_url"`
	PullRequest   *githubPullLink `json:"pull_request"`
}

type githubPullLink struct {
	MergedAt *time.Time `json:"merged_at"`
}
