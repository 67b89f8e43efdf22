// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fingerprintKey is the reserved top-level key holding the profile
// fingerprint the cached scores were computed under.
const fingerprintKey = "_fingerprint"

// Entry is one cached model verdict. Score is on the model's 0-100 scale.
type Entry struct {
	Score    int      `json:"score"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary,omitempty"`
}

// UnmarshalJSON accepts the structured form and the legacy form where an
// entry is a bare number. Legacy entries become {score, no keywords, no
// summary}; the distinction is gone after load and never re-checked.
// A structured entry without a "score" field gets the neutral score, so
// a half-formed verdict is not buried at zero.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*e = Entry{Score: int(n)}
		return nil
	}

	var obj struct {
		Score    *int     `json:"score"`
		Keywords []string `json:"keywords"`
		Summary  string   `json:"summary"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	score := neutralScore
	if obj.Score != nil {
		score = *obj.Score
	}
	*e = Entry{Score: score, Keywords: obj.Keywords, Summary: obj.Summary}
	return nil
}

// CacheStore persists model verdicts between ranking runs. Implementations
// treat unreadable, corrupt, or stale state as an empty cache; loading
// never fails the caller.
type CacheStore interface {
	// Load returns the cached entries recorded under fingerprint, or an
	// empty map when no cache exists or it was written under a
	// different fingerprint.
	Load(fingerprint string) map[string]Entry

	// Save replaces the whole cache with entries under fingerprint.
	// It is an overwrite, not a merge.
	Save(entries map[string]Entry, fingerprint string) error
}

// FileCache stores entries as a single JSON object on disk: paper IDs map
// to entries, with the fingerprint under a reserved key beside them.
type FileCache struct {
	Path string
}

// Load reads the cache file. A missing file, a parse failure, or a
// fingerprint mismatch all yield an empty map; individual entries that
// fail to decode are dropped rather than poisoning the rest.
func (c *FileCache) Load(fingerprint string) map[string]Entry {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return entries
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return entries
	}

	var stored string
	if fp, ok := raw[fingerprintKey]; !ok || json.Unmarshal(fp, &stored) != nil || stored != fingerprint {
		return entries
	}

	for id, msg := range raw {
		if id == fingerprintKey {
			continue
		}
		var e Entry
		if err := json.Unmarshal(msg, &e); err != nil {
			continue
		}
		entries[id] = e
	}
	return entries
}

// Save writes the full cache atomically: marshal to a temp file in the
// same directory, then rename over the old cache.
func (c *FileCache) Save(entries map[string]Entry, fingerprint string) error {
	doc := make(map[string]any, len(entries)+1)
	doc[fingerprintKey] = fingerprint
	for id, e := range entries {
		doc[id] = e
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling score cache: %w", err)
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".score-cache-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing score cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing score cache: %w", err)
	}
	return nil
}
