// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores papers against the researcher's interest profile.
// The first pass is a deterministic TF-IDF keyword scorer; an optional
// second pass re-ranks the top candidates with a Generative AI model,
// backed by a fingerprinted score cache.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/paper-radar/pkg/types"
)

// Scored pairs a paper with a relevance score. Scores from BySimilarity
// are normalized to [0, 1]; scores from Ranker.Rank are on the same scale.
type Scored struct {
	Paper types.Paper
	Score float64
}

// ComputeIDF returns an inverse-document-frequency weight per keyword,
// derived from the current batch. Matching is case-insensitive substring
// containment over title and abstract, so "ai" inside "air" counts; the
// scorer trades precision for catching inflections and compound terms.
//
// idf = ln(n / (1 + df)) + 1, which stays near 1.0 for keywords present
// in every paper and grows for rare ones.
func ComputeIDF(papers []types.Paper, keywords []string) map[string]float64 {
	idf := make(map[string]float64, len(keywords))

	n := len(papers)
	if n == 0 {
		for _, kw := range keywords {
			idf[kw] = 1.0
		}
		return idf
	}

	for _, kw := range keywords {
		df := 0
		for _, p := range papers {
			if strings.Contains(strings.ToLower(p.Title+" "+p.Abstract), kw) {
				df++
			}
		}
		idf[kw] = math.Log(float64(n)/float64(1+df)) + 1
	}
	return idf
}

// BySimilarity ranks papers by TF-IDF-weighted keyword presence, sorted
// by score descending. A keyword found in the title scores
// idf*titleWeight; otherwise a keyword found in the abstract scores idf
// (a title match suppresses the abstract match for that keyword). Raw
// scores are normalized by the batch maximum so the best paper scores
// 1.0. Equal scores keep their input order.
//
// With no papers or no keywords every paper scores 0.0 in input order.
func BySimilarity(papers []types.Paper, keywords []string, titleWeight float64) []Scored {
	scored := make([]Scored, len(papers))
	for i, p := range papers {
		scored[i] = Scored{Paper: p}
	}
	if len(papers) == 0 || len(keywords) == 0 {
		return scored
	}

	idf := ComputeIDF(papers, keywords)

	maxScore := 0.0
	for i, p := range papers {
		title := strings.ToLower(p.Title)
		abstract := strings.ToLower(p.Abstract)

		score := 0.0
		for _, kw := range keywords {
			switch {
			case strings.Contains(title, kw):
				score += idf[kw] * titleWeight
			case strings.Contains(abstract, kw):
				score += idf[kw]
			}
		}
		scored[i].Score = score
		if score > maxScore {
			maxScore = score
		}
	}

	if maxScore > 0 {
		for i := range scored {
			scored[i].Score /= maxScore
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
