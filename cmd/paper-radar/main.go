// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-radar CLI.
//
// paper-radar watches arXiv categories for new preprints and ranks them
// against a personal research profile. Each pipeline stage is a
// subcommand: fetch, rank, report, and cache.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-radar/internal/secrets"
	"github.com/pdiddy/paper-radar/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the secret value for
// key, else "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-radar CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-radar",
	Short: "Rank new arXiv preprints against your research interests",
	Long: `paper-radar fetches recent submissions from the arXiv Atom feed, archives
them locally, and ranks them in two stages: a keyword TF-IDF pass over
titles and abstracts, then an optional Claude re-ranking of the top
candidates with cached verdicts.

Each stage is a subcommand: fetch pulls new papers into the archive, rank
scores them, report renders a saved ranking as HTML, and cache manages the
model score cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-radar.yaml or ~/.config/paper-radar/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-radar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-radar"))
		}
	}

	viper.SetEnvPrefix("PAPER_RADAR")
	viper.AutomaticEnv()

	viper.SetDefault("feed.categories", []string{"astro-ph.CO", "astro-ph.GA", "astro-ph.IM"})
	viper.SetDefault("feed.days", 3)
	viper.SetDefault("feed.page_size", 100)
	viper.SetDefault("feed.max_retries", 5)
	viper.SetDefault("feed.timeout", "30s")
	viper.SetDefault("feed.user_agent", "paper-radar/"+version)
	viper.SetDefault("rank.model", "haiku")
	viper.SetDefault("rank.max_tokens", 4096)
	viper.SetDefault("rank.keywords_file", "data/keywords.txt")
	viper.SetDefault("rank.description_file", "data/research_description.txt")
	viper.SetDefault("rank.cache_file", "data/score-cache.json")
	viper.SetDefault("rank.top_n", 30)
	viper.SetDefault("rank.title_weight", 3.0)
	viper.SetDefault("archive.data_dir", "data")
	viper.SetDefault("report.output_dir", "output")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the pipeline configuration from viper, which
// layers config file, environment, and defaults. Flag overrides are
// applied per command.
func loadConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Feed: types.FeedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("feed.timeout"),
				UserAgent: viper.GetString("feed.user_agent"),
			},
			Categories: viper.GetStringSlice("feed.categories"),
			Days:       viper.GetInt("feed.days"),
			PageSize:   viper.GetInt("feed.page_size"),
			MaxRetries: viper.GetInt("feed.max_retries"),
		},
		Rank: types.RankConfig{
			AIConfig: types.AIConfig{
				Model:     viper.GetString("rank.model"),
				APIKey:    secretDefault("anthropic-api-key", viper.GetString("rank.api_key")),
				MaxTokens: viper.GetInt("rank.max_tokens"),
			},
			KeywordsFile:    viper.GetString("rank.keywords_file"),
			DescriptionFile: viper.GetString("rank.description_file"),
			CacheFile:       viper.GetString("rank.cache_file"),
			TopN:            viper.GetInt("rank.top_n"),
			TitleWeight:     viper.GetFloat64("rank.title_weight"),
		},
		Archive: types.ArchiveConfig{
			DataDir: viper.GetString("archive.data_dir"),
		},
		Report: types.ReportConfig{
			OutputDir: viper.GetString("report.output_dir"),
		},
	}
}

// modelAliases maps short model names to full Claude model identifiers.
var modelAliases = map[string]string{
	"haiku":  "claude-3-5-haiku-latest",
	"sonnet": "claude-sonnet-4-20250514",
}

// resolveModel expands a short alias to the full model identifier.
// Unrecognized names pass through unchanged.
func resolveModel(name string) string {
	if full, ok := modelAliases[name]; ok {
		return full
	}
	return name
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
