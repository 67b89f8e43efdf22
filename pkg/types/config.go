package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-radar/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FeedConfig holds settings for fetching recent papers from the arXiv feed.
type FeedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Categories lists the arXiv categories to watch
	// (e.g. "astro-ph.CO"). A paper is kept when any of its categories
	// matches.
	Categories []string `json:"categories" yaml:"categories"`

	// Days is how far back to look for new submissions (default 3).
	Days int `json:"days" yaml:"days"`

	// PageSize is the number of entries requested per feed page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxRetries is the number of retry attempts on rate-limited
	// feed requests (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-3-5-haiku-latest").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the response size of a single API call (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// RankConfig holds settings for the two-stage relevance ranking.
type RankConfig struct {
	AIConfig `yaml:",inline"`

	// KeywordsFile is the path to the keyword list, one keyword per
	// line, '#' comments allowed. A missing file means no keywords.
	KeywordsFile string `json:"keywords_file" yaml:"keywords_file"`

	// DescriptionFile is the path to the free-text research interest
	// description. A missing file means no description.
	DescriptionFile string `json:"description_file" yaml:"description_file"`

	// CacheFile is the path to the model score cache (default
	// data/score-cache.json).
	CacheFile string `json:"cache_file" yaml:"cache_file"`

	// TopN is how many keyword-ranked papers are sent to the model
	// for re-ranking (default 30).
	TopN int `json:"top_n" yaml:"top_n"`

	// TitleWeight is the score multiplier for keywords found in the
	// title rather than the abstract (default 3.0).
	TitleWeight float64 `json:"title_weight" yaml:"title_weight"`
}

// ArchiveConfig holds settings for the local paper archive.
type ArchiveConfig struct {
	// DataDir is the directory holding the archive database and the
	// score cache (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ReportConfig holds settings for report rendering.
type ReportConfig struct {
	// OutputDir is the directory for rendered reports (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Rank    RankConfig    `json:"rank" yaml:"rank"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
	Report  ReportConfig  `json:"report" yaml:"report"`
}
