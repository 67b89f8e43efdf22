// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads the researcher's interest profile: an ordered
// keyword list and a free-text research description. The profile content
// is fingerprinted so cached model scores can be invalidated when the
// researcher edits either file.
package profile

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// Profile is the loaded interest profile for one ranking run. It has no
// lifecycle of its own; callers reload it fresh each invocation.
type Profile struct {
	// Keywords are the normalized keywords in file order.
	Keywords []string

	// Description is the trimmed research interest description.
	Description string

	// Fingerprint is a short hash over the raw profile source bytes.
	Fingerprint string
}

// Load reads both profile sources and computes their fingerprint.
// Missing files are valid empty state, not errors.
func Load(keywordsPath, descriptionPath string) (*Profile, error) {
	keywords, err := LoadKeywords(keywordsPath)
	if err != nil {
		return nil, err
	}
	description, err := LoadDescription(descriptionPath)
	if err != nil {
		return nil, err
	}
	fp, err := Fingerprint(keywordsPath, descriptionPath)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Keywords:    keywords,
		Description: description,
		Fingerprint: fp,
	}, nil
}

// LoadKeywords reads a line-oriented keyword file. Each line is trimmed
// and lowercased; blank lines and '#' comments are skipped. File order is
// preserved. A missing file yields no keywords and no error.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keywords %s: %w", path, err)
	}

	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, strings.ToLower(line))
	}
	return keywords, nil
}

// LoadDescription reads the research description file and returns its
// trimmed contents. A missing file yields an empty string and no error.
func LoadDescription(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading description %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Fingerprint hashes the raw bytes of the given files, concatenated in
// argument order. Files that do not exist are skipped, so an absent
// profile still fingerprints deterministically. The result is the first
// 12 hex characters of a SHA-256 digest; collisions are not a concern at
// this scale.
func Fingerprint(paths ...string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		h.Write(data)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12], nil
}
