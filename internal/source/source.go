// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries the external services a person's work artifacts
// live in (GitHub, Confluence, Jira, Greenhouse) and returns typed raw
// records. Each adapter owns its query language, auth, and response schema;
// callers see only Source[T].
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// dayLayout is the date format used in provider queries and responses.
const dayLayout = "2006-01-02"

// pageSize is the single bounded page fetched from every provider.
const pageSize = 100

// defaultTimeout applies when an adapter is built without an HTTP client.
const defaultTimeout = 30 * time.Second

// Source fetches one kind of artifact for a date range. Implementations
// return records newest first. An error means the fetch failed unexpectedly;
// expected provider conditions (rate limits, missing optional credentials)
// are handled inside the adapter and yield an empty list with a nil error.
type Source[T any] interface {
	Name() string
	Fetch(ctx context.Context, r DateRange) ([]T, error)
}

// DateRange is an inclusive range of whole days, both ends in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates start and end to their UTC day.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: truncateDay(start), End: truncateDay(end)}
}

// ParseDateRange parses two YYYY-MM-DD dates and checks their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dayLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", start)
	}
	e, err := time.Parse(dayLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return NewDateRange(s, e), nil
}

// StartDay formats the first day of the range.
func (r DateRange) StartDay() string { return r.Start.Format(dayLayout) }

// EndDay formats the last day of the range.
func (r DateRange) EndDay() string { return r.End.Format(dayLayout) }

// EndExclusive formats the day after the range, for "created < X" filters
// that keep the whole last day.
func (r DateRange) EndExclusive() string { return r.End.AddDate(0, 0, 1).Format(dayLayout) }

func (r DateRange) String() string { return r.StartDay() + ".." + r.EndDay() }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PullRequest is a raw GitHub pull request. Body is only read by the
// summarizer and never leaves the aggregator.
type PullRequest struct {
	Title     string
	URL       string
	Repo      string
	State     string
	CreatedAt time.Time
	Body      string
}

// Document is a raw Confluence page or blog post.
type Document struct {
	ID        string
	Title     string
	URL       string
	Space     string
	CreatedAt time.Time
	Excerpt   string
}

// Ticket is a raw Jira issue. Description holds the field as returned:
// a JSON string or an ADF document.
type Ticket struct {
	Key         string
	Title       string
	URL         string
	Status      string
	Type        string
	CreatedAt   time.Time
	Description json.RawMessage
}

// Interview is a raw Greenhouse scheduled interview with placeholders
// already applied to missing fields.
type Interview struct {
	ID            string
	CandidateName string
	JobTitle      string
	InterviewType string
	StartsAt      time.Time
	ScheduledAt   string
	Status        string
	Interviewers  []string
	Organizer     string
}

// sortNewestFirst orders items by creation time descending, keeping the
// provider's order for ties.
func sortNewestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return zap.NewNop()
}
