// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pdiddy/paper-radar/pkg/types"
)

const (
	defaultTopN        = 30
	defaultTitleWeight = 3.0

	// neutralScore is assumed for a candidate the model response
	// skipped; a gap in an otherwise valid response is not an error.
	neutralScore = 50

	// tailFactor scales un-reranked papers below the worst candidate
	// so they never outrank a model-scored paper.
	tailFactor = 0.9
)

// Ranker runs the two-stage ranking. The cache store and model backend
// are injected so tests run without filesystem or network access.
type Ranker struct {
	// Keywords and Description come from the loaded profile.
	Keywords    []string
	Description string

	// Fingerprint is the profile fingerprint the cache is valid under.
	Fingerprint string

	// TitleWeight is the TF-IDF title multiplier (default 3.0).
	TitleWeight float64

	// TopN is how many keyword-ranked papers go to the model (default 30).
	TopN int

	Cache   CacheStore
	Backend ModelBackend
}

// Result is a full ordered ranking plus per-paper auxiliary maps built
// from the cache: matched keywords for ranked candidates, and summaries
// for papers that have one.
type Result struct {
	Ranked    []Scored
	Keywords  map[string][]string
	Summaries map[string]string
}

// Rank scores papers with the keyword pass, sends the uncached top-N
// candidates to the model in one batched request, merges cache hits,
// persists new verdicts, and blends the tail in below the candidates.
//
// Every recoverable failure degrades instead of erroring: a failed or
// unparseable model response falls back to the plain keyword ranking for
// the whole batch with no cache write. Progress and warnings go to w.
// The returned ranking is always fully ordered.
func (r *Ranker) Rank(ctx context.Context, papers []types.Paper, w io.Writer) Result {
	if len(papers) == 0 {
		return emptyResult(nil)
	}

	titleWeight := r.TitleWeight
	if titleWeight <= 0 {
		titleWeight = defaultTitleWeight
	}
	keywordRanked := BySimilarity(papers, r.Keywords, titleWeight)

	topN := r.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	if topN > len(keywordRanked) {
		topN = len(keywordRanked)
	}
	candidates := keywordRanked[:topN]
	remaining := keywordRanked[topN:]

	if len(candidates) == 0 || len(r.Keywords) == 0 {
		return emptyResult(keywordRanked)
	}

	cache := r.Cache.Load(r.Fingerprint)

	// Candidates with a cached verdict reuse it; the rest go to the model.
	var ranked []Scored
	var uncached []Scored
	for _, c := range candidates {
		if e, ok := cache[c.Paper.ID]; ok {
			ranked = append(ranked, Scored{Paper: c.Paper, Score: float64(e.Score) / 100.0})
		} else {
			uncached = append(uncached, c)
		}
	}
	fmt.Fprintf(w, "top %d candidates: %d cached, %d new\n",
		len(candidates), len(ranked), len(uncached))

	if len(uncached) > 0 {
		verdicts, ok := r.scoreBatch(ctx, uncached, w)
		if !ok {
			// Full fallback: the whole candidate set reverts to the
			// keyword ranking and the cache is left untouched.
			return emptyResult(keywordRanked)
		}

		for i, c := range uncached {
			v, found := verdicts[strconv.Itoa(i+1)]
			if !found {
				v = Entry{Score: neutralScore}
			}
			cache[c.Paper.ID] = v
			ranked = append(ranked, Scored{Paper: c.Paper, Score: float64(v.Score) / 100.0})
		}

		if err := r.Cache.Save(cache, r.Fingerprint); err != nil {
			fmt.Fprintf(w, "warning: saving score cache: %v\n", err)
		}
		fmt.Fprintf(w, "scored %d new papers\n", len(uncached))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	// Papers beyond top-N keep their keyword order, scaled under the
	// worst candidate score.
	if len(remaining) > 0 {
		minScore := ranked[len(ranked)-1].Score
		for _, s := range remaining {
			ranked = append(ranked, Scored{Paper: s.Paper, Score: s.Score * minScore * tailFactor})
		}
	}

	keywords := make(map[string][]string)
	summaries := make(map[string]string)
	for _, s := range ranked {
		e, ok := cache[s.Paper.ID]
		if !ok {
			continue
		}
		keywords[s.Paper.ID] = e.Keywords
		if e.Summary != "" {
			summaries[s.Paper.ID] = e.Summary
		}
	}

	return Result{Ranked: ranked, Keywords: keywords, Summaries: summaries}
}

// scoreBatch sends one request covering all uncached candidates and
// parses the per-index verdicts. ok is false when the call or the parse
// failed and the whole model stage must be abandoned.
func (r *Ranker) scoreBatch(ctx context.Context, uncached []Scored, w io.Writer) (map[string]Entry, bool) {
	prompt, err := buildPrompt(r.Description, r.Keywords, uncached)
	if err != nil {
		fmt.Fprintf(w, "warning: %v; falling back to keyword ranking\n", err)
		return nil, false
	}

	raw, err := r.Backend.Complete(ctx, prompt)
	if err != nil {
		fmt.Fprintf(w, "warning: model request failed: %v; falling back to keyword ranking\n", err)
		return nil, false
	}

	obj, found := extractJSON(raw)
	if !found {
		fmt.Fprintf(w, "warning: no JSON object in model response; falling back to keyword ranking\n")
		return nil, false
	}

	var verdicts map[string]Entry
	if err := json.Unmarshal([]byte(obj), &verdicts); err != nil {
		fmt.Fprintf(w, "warning: could not parse model response: %v; falling back to keyword ranking\n", err)
		return nil, false
	}
	return verdicts, true
}

func emptyResult(ranked []Scored) Result {
	return Result{
		Ranked:    ranked,
		Keywords:  map[string][]string{},
		Summaries: map[string]string{},
	}
}
