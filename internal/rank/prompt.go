// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
)

// excerptLimit caps the abstract text included per paper in the prompt.
const excerptLimit = 600

// rankingPromptTmpl is the single batched prompt sent to the model. It
// carries the research description, the keyword list, the scoring rubric,
// and a 1-indexed list of paper excerpts, and asks for one JSON object
// keyed by those indices.
var rankingPromptTmpl = template.Must(template.New("ranking").Parse(`You are helping a researcher filter daily arXiv papers.
Rate each paper's relevance from 1-100%, list matching keywords,
and for papers scoring 75%+, write a one-sentence summary.

RESEARCHER'S FOCUS AREAS:
{{.Description}}

RELEVANT KEYWORDS:
{{.Keywords}}

SCORING RUBRIC:
90-100%: Directly addresses my research, must read
70-89%: Closely related, relevant methodology
50-69%: Tangentially related, useful background
30-49%: Same broad field but different focus
1-29%: Unrelated to my research

PAPERS:
{{.Papers}}

Return ONLY valid JSON. Include "summary" only if score >= 75:
{"1": {"score": 85, "keywords": ["H0"], "summary": "..."}, "2": ...}`))

// buildPrompt renders the ranking prompt for the given uncached papers.
// Papers are enumerated from 1 in slice order; the response is keyed by
// the same indices.
func buildPrompt(description string, keywords []string, papers []Scored) (string, error) {
	var list strings.Builder
	for i, s := range papers {
		fmt.Fprintf(&list, "\n[%d] %s\n%s\n", i+1, s.Paper.Title, truncate(s.Paper.Abstract, excerptLimit))
	}

	var buf bytes.Buffer
	err := rankingPromptTmpl.Execute(&buf, struct {
		Description string
		Keywords    string
		Papers      string
	}{
		Description: description,
		Keywords:    strings.Join(keywords, ", "),
		Papers:      list.String(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering ranking prompt: %w", err)
	}
	return buf.String(), nil
}

// truncate returns s cut to at most max bytes, backing off to the nearest
// rune boundary so a multi-byte character is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}

// extractJSON returns the first balanced JSON object in s. The model is
// told to return only JSON but tends to wrap it in prose, so the scan
// starts at the first '{' and tracks brace depth, honoring string
// literals and escapes. Returns false when no balanced object exists.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ModelBackend abstracts the text-generation API so tests can supply a
// mock. Complete returns the model's raw text response for one prompt.
type ModelBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends the prompt as a single user message and returns the
// first text block of the response.
func (c *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
