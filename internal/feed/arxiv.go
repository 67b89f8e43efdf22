// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed retrieves recent submissions from the arXiv Atom API.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-radar/internal/httputil"
	"github.com/pdiddy/paper-radar/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	defaultDays     = 3
	defaultPageSize = 100

	// maxPages bounds pagination in case the feed never reaches the
	// cutoff date.
	maxPages = 20
)

// Client fetches recent papers from arXiv.
type Client struct {
	HTTP *http.Client
}

// FetchRecent returns papers submitted to any of the configured
// categories within the last cfg.Days days, newest first. Cross-listed
// papers appear once; papers whose categories do not intersect the
// requested set are dropped. Rate-limited requests are retried with
// backoff.
func (c *Client) FetchRecent(ctx context.Context, cfg types.FeedConfig) ([]types.Paper, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("no feed categories configured")
	}

	days := cfg.Days
	if days <= 0 {
		days = defaultDays
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	// OR across categories so cross-lists are caught in one query.
	terms := make([]string, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		terms[i] = "cat:" + cat
	}
	query := strings.Join(terms, "+OR+")

	wanted := make(map[string]bool, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		wanted[cat] = true
	}

	seen := make(map[string]bool)
	var papers []types.Paper

	for page := 0; page < maxPages; page++ {
		entries, err := c.fetchPage(ctx, query, page*pageSize, pageSize, cfg)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		pastCutoff := false
		for _, entry := range entries {
			published, err := time.Parse(time.RFC3339, entry.Published)
			if err != nil {
				continue
			}
			// Results are sorted by submission date descending, so the
			// first entry past the cutoff ends the scan.
			if published.Before(cutoff) {
				pastCutoff = true
				break
			}

			id := extractArxivID(entry.ID)
			if id == "" || seen[id] {
				continue
			}

			var categories []string
			matched := false
			for _, cat := range entry.Categories {
				categories = append(categories, cat.Term)
				if wanted[cat.Term] {
					matched = true
				}
			}
			if !matched {
				continue
			}

			seen[id] = true
			p := types.Paper{
				ID:         id,
				Title:      collapseWhitespace(entry.Title),
				Abstract:   collapseWhitespace(entry.Summary),
				Categories: categories,
				Published:  published,
				URL:        entry.ID,
			}
			for _, a := range entry.Authors {
				p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
			}
			papers = append(papers, p)
		}

		if pastCutoff || len(entries) < pageSize {
			break
		}
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Published.After(papers[j].Published)
	})
	return papers, nil
}

// fetchPage requests one page of feed results sorted by submission date.
func (c *Client) fetchPage(ctx context.Context, query string, start, pageSize int, cfg types.FeedConfig) ([]arxivEntry, error) {
	url := fmt.Sprintf("%s?search_query=%s&start=%d&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, query, start, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed.Entries, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL,
// keeping the version suffix (e.g. "http://arxiv.org/abs/2301.07041v1"
// yields "2301.07041v1").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns in
// titles and abstracts into single-space-separated text.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
