// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds the metadata for one preprint as supplied by the feed.
// ID is the arXiv identifier (e.g. "2301.07041v1") and is assumed unique
// within a batch; the ranking and cache layers key on it.
type Paper struct {
	// ID is the arXiv identifier, including any version suffix.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with newlines collapsed to spaces.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract with newlines collapsed to spaces.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists all arXiv categories the paper appears under,
	// primary first.
	Categories []string `json:"categories" yaml:"categories"`

	// Published is the submission timestamp reported by the feed.
	Published time.Time `json:"published" yaml:"published"`

	// URL is the canonical abstract page for the paper.
	URL string `json:"url" yaml:"url"`
}
