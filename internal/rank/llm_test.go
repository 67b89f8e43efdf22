// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"io"
	"testing"

	"github.com/pdiddy/paper-radar/pkg/types"
)

// --- mocks ---

type mockModel struct {
	response string
	err      error
	calls    int
}

func (m *mockModel) Complete(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

type memCache struct {
	entries     map[string]Entry
	fingerprint string
	saved       bool
}

func (m *memCache) Load(fingerprint string) map[string]Entry {
	out := make(map[string]Entry)
	if fingerprint != m.fingerprint {
		return out
	}
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *memCache) Save(entries map[string]Entry, fingerprint string) error {
	m.entries = entries
	m.fingerprint = fingerprint
	m.saved = true
	return nil
}

// testPapers yields a batch whose TF-IDF order under keywords
// {alpha, beta} is p1, p2, p4, p3, p5.
func testPapers() []types.Paper {
	return []types.Paper{
		paper("p1", "alpha and beta review", "survey"),
		paper("p2", "alpha methods", "details"),
		paper("p3", "instrumentation", "uses alpha throughout"),
		paper("p4", "detector noise", "beta decay rates"),
		paper("p5", "dust", "nothing relevant"),
	}
}

func testRanker(cache CacheStore, backend ModelBackend, topN int) *Ranker {
	return &Ranker{
		Keywords:    []string{"alpha", "beta"},
		Description: "I study alpha and beta processes.",
		Fingerprint: "fp-test",
		TopN:        topN,
		Cache:       cache,
		Backend:     backend,
	}
}

func ids(ranked []Scored) []string {
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Paper.ID
	}
	return out
}

// --- Rank ---

func TestRankEmptyPapers(t *testing.T) {
	r := testRanker(nil, nil, 3)
	res := r.Rank(context.Background(), nil, io.Discard)
	if len(res.Ranked) != 0 || len(res.Keywords) != 0 || len(res.Summaries) != 0 {
		t.Errorf("Rank(nil) = %+v, want empty result", res)
	}
}

func TestRankNoKeywords(t *testing.T) {
	backend := &mockModel{}
	r := testRanker(nil, backend, 3)
	r.Keywords = nil

	res := r.Rank(context.Background(), testPapers(), io.Discard)

	if backend.calls != 0 {
		t.Errorf("backend called %d times with no keywords configured", backend.calls)
	}
	if len(res.Ranked) != 5 {
		t.Fatalf("len(Ranked) = %d, want 5", len(res.Ranked))
	}
	for _, s := range res.Ranked {
		if s.Score != 0.0 {
			t.Errorf("score = %f, want 0", s.Score)
		}
	}
}

func TestRankScoresUncachedCandidates(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{
		response: `Here are my ratings:
{"1": {"score": 90, "keywords": ["alpha"], "summary": "Top pick."}, "2": {"score": 40, "keywords": []}, "3": {"score": 70, "keywords": ["beta"]}}
Let me know if you need anything else.`,
	}
	r := testRanker(cache, backend, 3)
	papers := testPapers()

	res := r.Rank(context.Background(), papers, io.Discard)

	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want exactly 1 batched request", backend.calls)
	}

	// Candidates p1, p2, p4 got 90, 40, 70: re-ranked p1, p4, p2,
	// then the tail p3, p5 in keyword order.
	want := []string{"p1", "p4", "p2", "p3", "p5"}
	got := ids(res.Ranked)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}

	if res.Ranked[0].Score != 0.9 || res.Ranked[1].Score != 0.7 || res.Ranked[2].Score != 0.4 {
		t.Errorf("candidate scores = %f, %f, %f, want 0.9, 0.7, 0.4",
			res.Ranked[0].Score, res.Ranked[1].Score, res.Ranked[2].Score)
	}

	// Tail papers scale their keyword score by min candidate * 0.9.
	kw := BySimilarity(papers, r.Keywords, defaultTitleWeight)
	var p3Orig float64
	for _, s := range kw {
		if s.Paper.ID == "p3" {
			p3Orig = s.Score
		}
	}
	if wantTail := p3Orig * 0.4 * tailFactor; !almostEqual(res.Ranked[3].Score, wantTail) {
		t.Errorf("tail score = %f, want %f", res.Ranked[3].Score, wantTail)
	}

	if !cache.saved {
		t.Error("cache was not persisted after scoring")
	}
	if e := cache.entries["p1"]; e.Score != 90 || e.Summary != "Top pick." {
		t.Errorf("cached p1 = %#v", e)
	}

	if res.Summaries["p1"] != "Top pick." {
		t.Errorf("summaries = %v", res.Summaries)
	}
	if _, ok := res.Summaries["p2"]; ok {
		t.Error("empty summary must be omitted from the summary map")
	}
	if got := res.Keywords["p4"]; len(got) != 1 || got[0] != "beta" {
		t.Errorf("keywords[p4] = %v", got)
	}
}

func TestRankFallbackOnUnparseableResponse(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{response: "I cannot rank these papers, sorry."}
	r := testRanker(cache, backend, 3)
	papers := testPapers()

	res := r.Rank(context.Background(), papers, io.Discard)

	// Full fallback: the entire batch reverts to the keyword ranking.
	kw := BySimilarity(papers, r.Keywords, defaultTitleWeight)
	if len(res.Ranked) != len(kw) {
		t.Fatalf("len(Ranked) = %d, want %d", len(res.Ranked), len(kw))
	}
	for i := range kw {
		if res.Ranked[i].Paper.ID != kw[i].Paper.ID || res.Ranked[i].Score != kw[i].Score {
			t.Errorf("position %d: got (%s, %f), want (%s, %f)", i,
				res.Ranked[i].Paper.ID, res.Ranked[i].Score, kw[i].Paper.ID, kw[i].Score)
		}
	}

	if cache.saved {
		t.Error("cache must not be written when the model stage aborts")
	}
	if len(res.Keywords) != 0 || len(res.Summaries) != 0 {
		t.Errorf("auxiliary maps must be empty on fallback, got %v / %v",
			res.Keywords, res.Summaries)
	}
}

func TestRankFallbackOnBackendError(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{err: io.ErrUnexpectedEOF}
	r := testRanker(cache, backend, 3)

	res := r.Rank(context.Background(), testPapers(), io.Discard)

	if len(res.Ranked) != 5 {
		t.Fatalf("len(Ranked) = %d, want 5", len(res.Ranked))
	}
	if cache.saved {
		t.Error("cache written after transport failure")
	}
}

func TestRankAllCachedSkipsModel(t *testing.T) {
	cache := &memCache{
		fingerprint: "fp-test",
		entries: map[string]Entry{
			"p1": {Score: 95, Keywords: []string{"alpha"}, Summary: "Read this."},
			"p2": {Score: 20},
			"p4": {Score: 60},
		},
	}
	backend := &mockModel{err: io.ErrUnexpectedEOF}
	r := testRanker(cache, backend, 3)

	res := r.Rank(context.Background(), testPapers(), io.Discard)

	if backend.calls != 0 {
		t.Errorf("backend calls = %d, want 0 when all candidates are cached", backend.calls)
	}
	want := []string{"p1", "p4", "p2"}
	got := ids(res.Ranked[:3])
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate order = %v, want %v", got, want)
		}
	}
	if res.Ranked[0].Score != 0.95 {
		t.Errorf("cached score = %f, want 95 scaled to 0.95", res.Ranked[0].Score)
	}
	if res.Summaries["p1"] != "Read this." {
		t.Errorf("summaries = %v", res.Summaries)
	}
}

func TestRankStaleFingerprintForcesRescore(t *testing.T) {
	// Cache written under a different profile fingerprint: every
	// candidate counts as uncached.
	cache := &memCache{
		fingerprint: "fp-old",
		entries:     map[string]Entry{"p1": {Score: 95}},
	}
	backend := &mockModel{response: `{"1": {"score": 10}, "2": {"score": 10}, "3": {"score": 10}}`}
	r := testRanker(cache, backend, 3)

	r.Rank(context.Background(), testPapers(), io.Discard)

	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1 after invalidation", backend.calls)
	}
	if cache.entries["p1"].Score != 10 {
		t.Errorf("stale cached score survived: %#v", cache.entries["p1"])
	}
	if cache.fingerprint != "fp-test" {
		t.Errorf("cache fingerprint = %q, want fp-test", cache.fingerprint)
	}
}

func TestRankMissingVerdictDefaultsNeutral(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{response: `{"1": {"score": 80, "keywords": ["alpha"]}}`}
	r := testRanker(cache, backend, 3)

	res := r.Rank(context.Background(), testPapers(), io.Discard)

	// Indices 2 and 3 are absent from the response: those candidates
	// get the neutral score instead of aborting the batch.
	if e := cache.entries["p2"]; e.Score != neutralScore {
		t.Errorf("cached p2 = %#v, want neutral %d", e, neutralScore)
	}
	if e := cache.entries["p4"]; e.Score != neutralScore {
		t.Errorf("cached p4 = %#v, want neutral %d", e, neutralScore)
	}
	if res.Ranked[0].Paper.ID != "p1" || res.Ranked[0].Score != 0.8 {
		t.Errorf("ranked[0] = (%s, %f), want (p1, 0.8)",
			res.Ranked[0].Paper.ID, res.Ranked[0].Score)
	}
}

func TestRankVerdictWithoutScoreDefaultsNeutral(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{
		response: `{"1": {"keywords": ["alpha"]}, "2": {"score": 60}, "3": {"score": 60}}`,
	}
	r := testRanker(cache, backend, 3)

	res := r.Rank(context.Background(), testPapers(), io.Discard)

	// The verdict for index 1 is present but has no score field: the
	// candidate gets the neutral score, not zero.
	var p1 Scored
	for _, s := range res.Ranked {
		if s.Paper.ID == "p1" {
			p1 = s
		}
	}
	if want := float64(neutralScore) / 100.0; p1.Score != want {
		t.Errorf("p1 score = %f, want %f", p1.Score, want)
	}
	if e := cache.entries["p1"]; e.Score != neutralScore || len(e.Keywords) != 1 {
		t.Errorf("cached p1 = %#v, want neutral score with keywords kept", e)
	}
}

func TestRankTailSortsBelowCandidates(t *testing.T) {
	cache := &memCache{}
	backend := &mockModel{response: `{"1": {"score": 40}}`}
	r := testRanker(cache, backend, 1)
	papers := []types.Paper{
		paper("q1", "alpha beta review", ""),
		paper("q2", "survey", "alpha and beta results"),
		paper("q3", "methods", "alpha calibration"),
	}

	res := r.Rank(context.Background(), papers, io.Discard)

	if res.Ranked[0].Paper.ID != "q1" || res.Ranked[0].Score != 0.4 {
		t.Fatalf("candidate = (%s, %f), want (q1, 0.4)",
			res.Ranked[0].Paper.ID, res.Ranked[0].Score)
	}

	kw := BySimilarity(papers, r.Keywords, defaultTitleWeight)
	for i, s := range res.Ranked[1:] {
		orig := kw[i+1]
		if s.Paper.ID != orig.Paper.ID {
			t.Errorf("tail order changed: got %s, want %s", s.Paper.ID, orig.Paper.ID)
		}
		want := orig.Score * 0.4 * tailFactor
		if !almostEqual(s.Score, want) {
			t.Errorf("tail score for %s = %f, want %f", s.Paper.ID, s.Score, want)
		}
		if s.Score >= res.Ranked[0].Score {
			t.Errorf("tail paper %s (%f) sorted at or above a candidate", s.Paper.ID, s.Score)
		}
	}
}
