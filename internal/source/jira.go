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

// jiraTimeLayout is the timestamp format of Jira's created field.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

const jiraFields = "summary,status,issuetype,description,created"

// Jira finds issues assigned to one account.
type Jira struct {
	Client    *http.Client
	Auth      AtlassianAuth
	AccountID string

	// SiteURL is the tenant URL; browse links are {SiteURL}/browse/{key}.
	SiteURL string

	MaxRetries int
	UserAgent  string
	Logger     *zap.Logger
}

// Name returns the source identifier.
func (j *Jira) Name() string { return "jira" }

// BuildJQL returns the search query for issues assigned to accountID and
// created in r.
func BuildJQL(accountID string, r DateRange) string {
	return fmt.Sprintf(
		"assignee = '%s' AND created >= '%s' AND created < '%s' ORDER BY created DESC",
		accountID, r.StartDay(), r.EndExclusive())
}

// Fetch runs one JQL search and returns up to one page of tickets, newest
// first. Descriptions are returned raw (plain string or ADF document).
func (j *Jira) Fetch(ctx context.Context, r DateRange) ([]Ticket, error) {
	params := url.Values{
		"jql":        {BuildJQL(j.AccountID, r)},
		"maxResults": {fmt.Sprintf("%d", pageSize)},
		"fields":     {jiraFields},
	}
	root := j.Auth.productRoot("jira", "", j.SiteURL)
	reqURL := root + "/rest/api/3/search/jql?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	j.Auth.apply(req)
	if j.UserAgent != "" {
		req.Header.Set("User-Agent", j.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(j.Client), req, j.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Jira API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("Jira", resp); err != nil {
		return nil, err
	}

	var sr jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Jira response: %w", err)
	}

	site := strings.TrimRight(j.SiteURL, "/")
	tickets := make([]Ticket, 0, len(sr.Issues))
	for _, issue := range sr.Issues {
		if issue.Key == "" || issue.Fields.Summary == "" {
			continue
		}
		tickets = append(tickets, Ticket{
			Key:         issue.Key,
			Title:       issue.Fields.Summary,
			URL:         site + "/browse/" + issue.Key,
			Status:      issue.Fields.Status.Name,
			Type:        issue.Fields.IssueType.Name,
			CreatedAt:   parseJiraTime(issue.Fields.Created),
			Description: issue.Fields.Description,
		})
	}
	sortNewestFirst(tickets, func(t Ticket) time.Time { return t.CreatedAt })
	loggerOrNop(j.Logger).Debug("Jira search complete", zap.Int("tickets", len(tickets)))
	return tickets, nil
}

// parseJiraTime accepts Jira's offset format and RFC 3339, returning the
// zero time when neither matches.
func parseJiraTime(s string) time.Time {
	for _, layout := range []string{jiraTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Jira API JSON structures.
type jiraSearchResponse struct {
	Issues        []jiraIssue `json:"issues"`
	NextPageToken string      `json:"nextPageToken"`
}

type jiraIssue struct {
	ID     string       `json:"id"`
	Key    string       `json:"key"`
	Fields jiraFieldSet `json:"fields"`
}

type jiraFieldSet struct {
	Summary string `json:"summary"`
	Status  struct {
		Name string `json:"name"`
	} `json:"status"`
	IssueType struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Description json.RawMessage `json:"description"`
	Created     string          `json:"created"`
}
