// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-radar/pkg/types"
)

// RunFile is the on-disk record of one ranking run. A run can be saved
// and later re-rendered as a report without refetching or re-scoring.
type RunFile struct {
	Params  RunParams   `yaml:"params"`
	Results []RunResult `yaml:"results"`
	Summary RunSummary  `yaml:"summary"`
}

// RunParams stores the parameters that produced the ranking.
type RunParams struct {
	Categories []string `yaml:"categories,omitempty"`
	Days       int      `yaml:"days"`
	TopN       int      `yaml:"top_n,omitempty"`
	Method     string   `yaml:"method"`
	Model      string   `yaml:"model,omitempty"`
}

// RunResult is one ranked paper with its score and cache-derived extras.
type RunResult struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Authors    []string `yaml:"authors,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Published  string   `yaml:"published,omitempty"`
	URL        string   `yaml:"url,omitempty"`
	Score      float64  `yaml:"score"`
	Keywords   []string `yaml:"keywords,omitempty"`
	Summary    string   `yaml:"summary,omitempty"`
}

// RunSummary stores result statistics and a timestamp.
type RunSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

const publishedFmt = "2006-01-02"

// WriteRunFile saves a ranking and its parameters to a YAML file.
func WriteRunFile(path string, params RunParams, res Result) error {
	rf := RunFile{
		Params: params,
		Summary: RunSummary{
			Total:     len(res.Ranked),
			Timestamp: time.Now(),
		},
	}

	for _, s := range res.Ranked {
		rr := RunResult{
			ID:         s.Paper.ID,
			Title:      s.Paper.Title,
			Authors:    s.Paper.Authors,
			Categories: s.Paper.Categories,
			URL:        s.Paper.URL,
			Score:      s.Score,
			Keywords:   res.Keywords[s.Paper.ID],
			Summary:    res.Summaries[s.Paper.ID],
		}
		if !s.Paper.Published.IsZero() {
			rr.Published = s.Paper.Published.Format(publishedFmt)
		}
		rf.Results = append(rf.Results, rr)
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously saved run file from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}

// ToResult converts a run file back into a Result plus the paper list,
// for re-rendering a saved ranking.
func (rf *RunFile) ToResult() Result {
	res := Result{
		Keywords:  map[string][]string{},
		Summaries: map[string]string{},
	}
	for _, rr := range rf.Results {
		p := types.Paper{
			ID:         rr.ID,
			Title:      rr.Title,
			Authors:    rr.Authors,
			Categories: rr.Categories,
			URL:        rr.URL,
		}
		if rr.Published != "" {
			if t, err := time.Parse(publishedFmt, rr.Published); err == nil {
				p.Published = t
			}
		}
		res.Ranked = append(res.Ranked, Scored{Paper: p, Score: rr.Score})
		if rr.Keywords != nil {
			res.Keywords[rr.ID] = rr.Keywords
		}
		if rr.Summary != "" {
			res.Summaries[rr.ID] = rr.Summary
		}
	}
	return res
}
