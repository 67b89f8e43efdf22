// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/paper-radar/pkg/types"
)

func testCfg(categories ...string) types.FeedConfig {
	return types.FeedConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "paper-radar-test/0.1"},
		Categories: categories,
		Days:       3,
	}
}

func atomEntry(id, title, summary, published string, categories ...string) string {
	cats := ""
	for _, c := range categories {
		cats += fmt.Sprintf(`<category term=%q/>`, c)
	}
	return fmt.Sprintf(`<entry>
	<id>http://arxiv.org/abs/%s</id>
	<title>%s</title>
	<summary>%s</summary>
	<published>%s</published>
	<author><name>A. Author</name></author>
	%s
</entry>`, id, title, summary, published, cats)
}

func atomFeed(entries ...string) string {
	body := ""
	for _, e := range entries {
		body += e
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">` + body + `</feed>`
}

func serveFeed(t *testing.T, body string) func() {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	return func() {
		arxivAPIBase = old
		ts.Close()
	}
}

func recent(hoursAgo int) string {
	return time.Now().UTC().Add(-time.Duration(hoursAgo) * time.Hour).Format(time.RFC3339)
}

func TestFetchRecent(t *testing.T) {
	cleanup := serveFeed(t, atomFeed(
		atomEntry("2508.01001v1", "Lensing\n maps", "A   study of\nlensing.", recent(2), "astro-ph.CO"),
		atomEntry("2508.01002v1", "Radio survey", "Deep fields.", recent(5), "astro-ph.IM", "astro-ph.GA"),
		atomEntry("2508.01003v1", "Quantum gravity", "Unrelated.", recent(6), "hep-th"),
	))
	defer cleanup()

	c := &Client{}
	papers, err := c.FetchRecent(context.Background(), testCfg("astro-ph.CO", "astro-ph.GA"))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}

	if len(papers) != 2 {
		t.Fatalf("len(papers) = %d, want 2 (hep-th entry filtered out)", len(papers))
	}
	if papers[0].ID != "2508.01001v1" {
		t.Errorf("papers[0].ID = %q, want newest first", papers[0].ID)
	}
	if papers[0].Title != "Lensing maps" {
		t.Errorf("title = %q, want newline-collapsed", papers[0].Title)
	}
	if papers[0].Abstract != "A study of lensing." {
		t.Errorf("abstract = %q, want whitespace-collapsed", papers[0].Abstract)
	}
	if papers[0].URL != "http://arxiv.org/abs/2508.01001v1" {
		t.Errorf("url = %q", papers[0].URL)
	}
	// Cross-listed paper keeps all its categories.
	if len(papers[1].Categories) != 2 {
		t.Errorf("categories = %v", papers[1].Categories)
	}
}

func TestFetchRecentCutoff(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
	cleanup := serveFeed(t, atomFeed(
		atomEntry("2508.01001v1", "New paper", "x", recent(1), "astro-ph.CO"),
		atomEntry("2507.09999v1", "Old paper", "y", old, "astro-ph.CO"),
	))
	defer cleanup()

	c := &Client{}
	papers, err := c.FetchRecent(context.Background(), testCfg("astro-ph.CO"))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "2508.01001v1" {
		t.Errorf("papers = %v, want only the recent one", papers)
	}
}

func TestFetchRecentDeduplicates(t *testing.T) {
	cleanup := serveFeed(t, atomFeed(
		atomEntry("2508.01001v1", "Paper", "x", recent(1), "astro-ph.CO"),
		atomEntry("2508.01001v1", "Paper", "x", recent(1), "astro-ph.CO"),
	))
	defer cleanup()

	c := &Client{}
	papers, err := c.FetchRecent(context.Background(), testCfg("astro-ph.CO"))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(papers) != 1 {
		t.Errorf("len(papers) = %d, want 1 after dedup", len(papers))
	}
}

func TestFetchRecentNoCategories(t *testing.T) {
	c := &Client{}
	if _, err := c.FetchRecent(context.Background(), types.FeedConfig{}); err == nil {
		t.Error("expected error with no categories configured")
	}
}

func TestFetchRecentHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	c := &Client{}
	if _, err := c.FetchRecent(context.Background(), testCfg("astro-ph.CO")); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041v1"},
		{"https://arxiv.org/abs/2301.07041v2", "2301.07041v2"},
		{"http://arxiv.org/abs/astro-ph/0601001v1", "astro-ph/0601001v1"},
		{"http://example.com/nothing", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
