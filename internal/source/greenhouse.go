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

// greenhouseAPIBase is the Harvest API root. Declared as a var so tests can
// substitute an httptest server.
var greenhouseAPIBase = "https://harvest.greenhouse.io/v1"

// greenhouseTimeout bounds the scheduled-interviews call regardless of the
// client's own timeout.
const greenhouseTimeout = 30 * time.Second

// Placeholders for missing nested fields.
const (
	UnknownCandidate     = "Unknown Candidate"
	UnknownPosition      = "Unknown Position"
	DefaultInterviewType = "Interview"
	DefaultStatus        = "scheduled"
)

// Greenhouse lists scheduled interviews. It is optional: without an API key
// Fetch returns an empty list and makes no request.
type Greenhouse struct {
	Client *http.Client
	APIKey string

	// UserID keeps only interviews this user conducts or organizes.
	UserID string

	UserAgent string
	Logger    *zap.Logger
}

// Name returns the source identifier.
func (g *Greenhouse) Name() string { return "greenhouse" }

// Fetch returns interviews scheduled within r, newest first. Unauthorized
// (401) and forbidden (403) responses are logged and yield an empty list.
func (g *Greenhouse) Fetch(ctx context.Context, r DateRange) ([]Interview, error) {
	log := loggerOrNop(g.Logger)
	if g.APIKey == "" {
		log.Info("Greenhouse API key not configured, skipping")
		return []Interview{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, greenhouseTimeout)
	defer cancel()

	params := url.Values{
		"starts_after": {r.StartDay() + "T00:00:00Z"},
		"ends_before":  {r.EndDay() + "T23:59:59Z"},
		"per_page":     {fmt.Sprintf("%d", pageSize)},
	}
	reqURL := greenhouseAPIBase + "/scheduled_interviews?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// Harvest uses basic auth with the key as username and a blank password.
	req.SetBasicAuth(g.APIKey, "")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: greenhouseTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Greenhouse API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		log.Warn("Greenhouse API authentication failed, check the API key")
		return []Interview{}, nil
	case http.StatusForbidden:
		log.Warn("Greenhouse API access forbidden, check key permissions")
		return []Interview{}, nil
	}
	if err := httputil.CheckStatus("Greenhouse", resp); err != nil {
		return nil, err
	}

	var raw []greenhouseInterview
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing Greenhouse response: %w", err)
	}

	interviews := make([]Interview, 0, len(raw))
	for _, gi := range raw {
		if g.UserID != "" && !gi.involves(g.UserID) {
			continue
		}
		interviews = append(interviews, gi.toInterview())
	}
	sortNewestFirst(interviews, func(i Interview) time.Time { return i.StartsAt })
	return interviews, nil
}

// involves reports whether userID is an interviewer or the organizer.
func (gi greenhouseInterview) involves(userID string) bool {
	if gi.Organizer != nil && gi.Organizer.ID.String() == userID {
		return true
	}
	for _, p := range gi.Interviewers {
		if p.ID.String() == userID {
			return true
		}
	}
	return false
}

// toInterview resolves optional nested fields, substituting placeholders
// for anything missing.
func (gi greenhouseInterview) toInterview() Interview {
	iv := Interview{
		ID:            gi.ID.String(),
		CandidateName: UnknownCandidate,
		JobTitle:      UnknownPosition,
		InterviewType: DefaultInterviewType,
		Status:        DefaultStatus,
		Interviewers:  []string{},
	}
	if app := gi.Application; app != nil {
		if name := app.Candidate.displayName(); name != "" {
			iv.CandidateName = name
		}
		if app.Job != nil && app.Job.Name != "" {
			iv.JobTitle = app.Job.Name
		}
	}
	if gi.Interview != nil && gi.Interview.Name != "" {
		iv.InterviewType = gi.Interview.Name
	}
	if gi.Status != "" {
		iv.Status = gi.Status
	}
	if gi.Start != nil {
		switch {
		case len(gi.Start.DateTime) >= len(dayLayout):
			iv.ScheduledAt = gi.Start.DateTime[:len(dayLayout)]
			iv.StartsAt, _ = time.Parse(time.RFC3339, gi.Start.DateTime)
		case gi.Start.Date != "":
			// All-day interviews carry only a date.
			iv.ScheduledAt = gi.Start.Date
		}
		if iv.StartsAt.IsZero() && iv.ScheduledAt != "" {
			iv.StartsAt, _ = time.Parse(dayLayout, iv.ScheduledAt)
		}
	}
	for _, p := range gi.Interviewers {
		if p.Name != "" {
			iv.Interviewers = append(iv.Interviewers, p.Name)
		}
	}
	if gi.Organizer != nil {
		iv.Organizer = gi.Organizer.Name
	}
	return iv
}

// Greenhouse API JSON structures.
type greenhouseInterview struct {
	ID          json.Number `json:"id"`
	Application *struct {
		Candidate *greenhouseCandidate `json:"candidate"`
		Job       *greenhouseNamed     `json:"job"`
	} `json:"application"`
	Interview    *greenhouseNamed   `json:"interview"`
	Start        *greenhouseTime    `json:"start"`
	Status       string             `json:"status"`
	Interviewers []greenhousePerson `json:"interviewers"`
	Organizer    *greenhousePerson  `json:"organizer"`
}

type greenhouseNamed struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type greenhouseCandidate struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
}

// displayName prefers the full name and falls back to first + last.
func (c *greenhouseCandidate) displayName() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type greenhousePerson struct {
	ID    json.Number `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

type greenhouseTime struct {
	DateTime string `json:"date_time"`
	Date     string `json:"date"`
}
