// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ranked paper batch as an HTML document,
// grouped by the researcher's watched categories.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/pdiddy/paper-radar/internal/rank"
	"github.com/pdiddy/paper-radar/pkg/types"
)

// Data is everything the report template needs.
type Data struct {
	GeneratedAt time.Time
	Days        int

	// Method labels how the ranking was produced ("Claude",
	// "Keywords", or empty for an unranked listing).
	Method string

	Total  int
	Groups []Group
}

// Group is one category section of the report.
type Group struct {
	Category string
	Papers   []Item
}

// Item is one paper row.
type Item struct {
	Paper    types.Paper
	Percent  int
	Keywords []string
	Summary  string
}

// Build groups a ranking by watched category, in the category order
// given. A cross-listed paper joins only the first watched category it
// matches; papers matching none are dropped. Within a group, papers keep
// their ranking order.
func Build(res rank.Result, categories []string, days int, method string) Data {
	d := Data{
		GeneratedAt: time.Now(),
		Days:        days,
		Method:      method,
		Total:       len(res.Ranked),
	}

	byCat := make(map[string]*Group, len(categories))
	for _, cat := range categories {
		g := &Group{Category: cat}
		byCat[cat] = g
		d.Groups = append(d.Groups, Group{})
	}

	for _, s := range res.Ranked {
		for _, cat := range categories {
			if !hasCategory(s.Paper, cat) {
				continue
			}
			byCat[cat].Papers = append(byCat[cat].Papers, Item{
				Paper:    s.Paper,
				Percent:  int(s.Score*100 + 0.5),
				Keywords: res.Keywords[s.Paper.ID],
				Summary:  res.Summaries[s.Paper.ID],
			})
			break
		}
	}

	for i, cat := range categories {
		d.Groups[i] = *byCat[cat]
	}
	return d
}

func hasCategory(p types.Paper, cat string) bool {
	for _, c := range p.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Render writes the HTML report to w.
func Render(w io.Writer, d Data) error {
	if err := reportTmpl.Execute(w, d); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path.
func WriteFile(path string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := Render(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>paper-radar: last {{.Days}} days</title>
<style>
body { font-family: Georgia, serif; max-width: 54em; margin: 2em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.5em; }
h2 { font-size: 1.2em; border-bottom: 1px solid #ccc; padding-bottom: 0.2em; margin-top: 2em; }
.meta { color: #666; font-size: 0.9em; }
.paper { margin: 1.2em 0; }
.paper .title { font-weight: bold; }
.paper .title a { color: #1a0dab; text-decoration: none; }
.score { color: #b00; font-weight: bold; margin-right: 0.5em; }
.authors { color: #555; font-size: 0.9em; }
.tags { font-size: 0.85em; color: #060; }
.summary { font-style: italic; margin-top: 0.2em; }
</style>
</head>
<body>
<h1>New papers, last {{.Days}} days</h1>
<p class="meta">{{.Total}} papers{{if .Method}}, ranked by {{.Method}}{{end}} &mdash; generated {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
{{range .Groups}}{{if .Papers}}
<h2>{{.Category}}</h2>
{{range .Papers}}
<div class="paper">
  <div class="title"><span class="score">{{.Percent}}%</span><a href="{{.Paper.URL}}">{{.Paper.Title}}</a></div>
  <div class="authors">{{range $i, $a := .Paper.Authors}}{{if $i}}, {{end}}{{$a}}{{end}}</div>
  {{if .Keywords}}<div class="tags">{{range $i, $k := .Keywords}}{{if $i}} &middot; {{end}}{{$k}}{{end}}</div>{{end}}
  {{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}
</div>
{{end}}
{{end}}{{end}}
</body>
</html>
`))
