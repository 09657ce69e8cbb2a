// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/pdiddy/work-output/internal/httputil"
)

// excerptPolicy strips all markup from search excerpts.
var excerptPolicy = bluemonday.StrictPolicy()

// Confluence search wraps matched terms in these markers.
var highlightMarkers = strings.NewReplacer("@@@hl@@@", "", "@@@endhl@@@", "")

// Confluence finds pages and blog posts created by one account.
type Confluence struct {
	Client    *http.Client
	Auth      AtlassianAuth
	AccountID string

	// SiteURL is the tenant URL; page links use the space-path form
	// {SiteURL}/wiki/spaces/{space}/pages/{id}.
	SiteURL string

	// ConfluenceURL is an optional separate wiki root (including any
	// context path such as /wiki). When set, basic-auth requests go to it
	// and page links use {ConfluenceURL}/pages/viewpage.action?pageId={id}.
	ConfluenceURL string

	MaxRetries int
	UserAgent  string
	Logger     *zap.Logger
}

// Name returns the source identifier.
func (c *Confluence) Name() string { return "confluence" }

// BuildCQL returns the search query for content created by accountID in r.
func BuildCQL(accountID string, r DateRange) string {
	return fmt.Sprintf(
		"creator = '%s' AND type IN (page, blogpost) AND created >= '%s' AND created < '%s' ORDER BY created DESC",
		accountID, r.StartDay(), r.EndExclusive())
}

// Fetch runs one CQL search and returns up to one page of documents, newest first.
func (c *Confluence) Fetch(ctx context.Context, r DateRange) ([]Document, error) {
	params := url.Values{
		"cql":    {BuildCQL(c.AccountID, r)},
		"limit":  {fmt.Sprintf("%d", pageSize)},
		"expand": {"content.space,content.history"},
	}
	reqURL := c.apiRoot() + "/rest/api/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.Auth.apply(req)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(c.Client), req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Confluence API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("Confluence", resp); err != nil {
		return nil, err
	}

	var sr confluenceSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Confluence response: %w", err)
	}

	docs := make([]Document, 0, len(sr.Results))
	for _, res := range sr.Results {
		content := res.Content
		if content == nil {
			content = &confluenceContent{Title: res.Title}
		}
		if content.Title == "" {
			continue
		}

		created := r.Start
		if content.History.CreatedDate != "" {
			if t, parseErr := time.Parse(time.RFC3339, content.History.CreatedDate); parseErr == nil {
				created = t
			}
		}

		docs = append(docs, Document{
			ID:        content.ID,
			Title:     content.Title,
			URL:       c.pageURL(content.Space.Key, content.ID),
			Space:     content.Space.Key,
			CreatedAt: created,
			Excerpt:   CleanExcerpt(res.Excerpt),
		})
	}
	sortNewestFirst(docs, func(d Document) time.Time { return d.CreatedAt })
	loggerOrNop(c.Logger).Debug("Confluence search complete",
		zap.Int("results", len(sr.Results)), zap.Int("documents", len(docs)))
	return docs, nil
}

// apiRoot returns the wiki REST root for the configured auth mode.
func (c *Confluence) apiRoot() string {
	direct := strings.TrimRight(c.SiteURL, "/") + "/wiki"
	if c.ConfluenceURL != "" {
		direct = c.ConfluenceURL
	}
	return c.Auth.productRoot("confluence", "/wiki", direct)
}

// pageURL builds a browsable link. A separate Confluence URL selects the
// query-parameter form; otherwise the space-path form on the tenant URL.
func (c *Confluence) pageURL(spaceKey, pageID string) string {
	if c.ConfluenceURL != "" {
		return strings.TrimRight(c.ConfluenceURL, "/") + "/pages/viewpage.action?pageId=" + url.QueryEscape(pageID)
	}
	return fmt.Sprintf("%s/wiki/spaces/%s/pages/%s",
		strings.TrimRight(c.SiteURL, "/"), url.PathEscape(spaceKey), url.PathEscape(pageID))
}

// CleanExcerpt removes markup, entities, and highlight markers from a
// search excerpt and collapses whitespace.
func CleanExcerpt(s string) string {
	s = highlightMarkers.Replace(s)
	s = html.UnescapeString(excerptPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Confluence API JSON structures.
type confluenceSearchResponse struct {
	Results []confluenceResult `json:"results"`
	Size    int                `json:"size"`
}

type confluenceResult struct {
	Content *confluenceContent `json:"content"`
	Title   string             `json:"title"`
	Excerpt string             `json:"excerpt"`
}

type confluenceContent struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	History struct {
		CreatedDate string `json:"createdDate"`
	} `json:"history"`
}
