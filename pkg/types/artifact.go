// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared between the aggregator, the HTTP
// surface, and the CLI. Field names in the json tags are the dashboard's wire
// contract.
package types

// PullRequest is a pull request authored by the configured GitHub user.
type PullRequest struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`

	// Repo is the owning repository as "owner/name".
	Repo string `json:"repo" yaml:"repo"`

	// State is one of "open", "closed", or "merged".
	State string `json:"state" yaml:"state"`

	// CreatedAt is the creation day formatted as YYYY-MM-DD.
	CreatedAt string `json:"created_at" yaml:"created_at"`

	Summary string `json:"summary" yaml:"summary"`
}

// ConfluenceDoc is a page or blog post created by the configured Atlassian account.
type ConfluenceDoc struct {
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url" yaml:"url"`
	Space     string `json:"space" yaml:"space"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	Summary   string `json:"summary" yaml:"summary"`
}

// JiraTicket is an issue assigned to the configured Atlassian account.
type JiraTicket struct {
	// Key is the issue key (e.g. "PROJ-123"), unique within the tracker.
	Key     string `json:"key" yaml:"key"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Status  string `json:"status" yaml:"status"`
	Type    string `json:"type" yaml:"type"`
	Summary string `json:"summary" yaml:"summary"`
}

// Interview is a scheduled Greenhouse interview.
type Interview struct {
	ID            string `json:"id" yaml:"id"`
	CandidateName string `json:"candidate_name" yaml:"candidate_name"`
	JobTitle      string `json:"job_title" yaml:"job_title"`
	InterviewType string `json:"interview_type" yaml:"interview_type"`

	// ScheduledAt carries day precision only (YYYY-MM-DD).
	ScheduledAt  string   `json:"scheduled_at" yaml:"scheduled_at"`
	Status       string   `json:"status" yaml:"status"`
	Interviewers []string `json:"interviewers" yaml:"interviewers"`
	Organizer    string   `json:"organizer" yaml:"organizer"`
}

// ArtifactsResponse holds one list per source kind. Each list keeps the
// order its source returned (newest first); kinds are never merged.
type ArtifactsResponse struct {
	PullRequests   []PullRequest   `json:"pull_requests" yaml:"pull_requests"`
	ConfluenceDocs []ConfluenceDoc `json:"confluence_docs" yaml:"confluence_docs"`
	JiraTickets    []JiraTicket    `json:"jira_tickets" yaml:"jira_tickets"`
	Interviews     []Interview     `json:"interviews" yaml:"interviews"`
}

// NewArtifactsResponse returns a response whose lists are empty rather than
// nil, so they encode as [] instead of null.
func NewArtifactsResponse() ArtifactsResponse {
	return ArtifactsResponse{
		PullRequests:   []PullRequest{},
		ConfluenceDocs: []ConfluenceDoc{},
		JiraTickets:    []JiraTicket{},
		Interviews:     []Interview{},
	}
}

// IsEmpty reports whether every list is empty.
func (r ArtifactsResponse) IsEmpty() bool {
	return len(r.PullRequests) == 0 && len(r.ConfluenceDocs) == 0 &&
		len(r.JiraTickets) == 0 && len(r.Interviews) == 0
}

// Total returns the number of artifacts across all lists.
func (r ArtifactsResponse) Total() int {
	return len(r.PullRequests) + len(r.ConfluenceDocs) + len(r.JiraTickets) + len(r.Interviews)
}
