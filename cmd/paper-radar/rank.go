// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-radar/internal/archive"
	"github.com/pdiddy/paper-radar/internal/profile"
	"github.com/pdiddy/paper-radar/internal/rank"
	"github.com/pdiddy/paper-radar/internal/report"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank archived papers against the research profile",
	Long: `Rank scores archived papers from the last N days with a keyword TF-IDF
pass. With --llm the top candidates are re-ranked by Claude in a single
batched request; verdicts are cached per profile fingerprint so repeated
runs only pay for new papers.

The ranking can be saved to a run file with --out and rendered as an HTML
report with --html.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cmd.Flags().Changed("days") {
			cfg.Feed.Days, _ = cmd.Flags().GetInt("days")
		}
		if cmd.Flags().Changed("top-n") {
			cfg.Rank.TopN, _ = cmd.Flags().GetInt("top-n")
		}
		if cmd.Flags().Changed("title-weight") {
			cfg.Rank.TitleWeight, _ = cmd.Flags().GetFloat64("title-weight")
		}
		if cmd.Flags().Changed("model") {
			cfg.Rank.Model, _ = cmd.Flags().GetString("model")
		}
		if cmd.Flags().Changed("keywords-file") {
			cfg.Rank.KeywordsFile, _ = cmd.Flags().GetString("keywords-file")
		}
		if cmd.Flags().Changed("description-file") {
			cfg.Rank.DescriptionFile, _ = cmd.Flags().GetString("description-file")
		}
		useLLM, _ := cmd.Flags().GetBool("llm")
		outFile, _ := cmd.Flags().GetString("out")
		htmlFile, _ := cmd.Flags().GetString("html")

		store, err := archive.Open(cfg.Archive.DataDir)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer store.Close()

		since := time.Now().AddDate(0, 0, -cfg.Feed.Days)
		papers, err := store.RecentPapers(cmd.Context(), since)
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		if len(papers) == 0 {
			return fmt.Errorf("no archived papers in the last %d days; run 'paper-radar fetch' first", cfg.Feed.Days)
		}

		prof, err := profile.Load(cfg.Rank.KeywordsFile, cfg.Rank.DescriptionFile)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		if len(prof.Keywords) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no keywords in %s; all keyword scores will be zero\n", cfg.Rank.KeywordsFile)
		}

		var res rank.Result
		method := "Keywords"
		if useLLM {
			if cfg.Rank.APIKey == "" {
				return fmt.Errorf("no API key: put it in .secrets/anthropic-api-key or set rank.api_key")
			}
			ranker := &rank.Ranker{
				Keywords:    prof.Keywords,
				Description: prof.Description,
				Fingerprint: prof.Fingerprint,
				TitleWeight: cfg.Rank.TitleWeight,
				TopN:        cfg.Rank.TopN,
				Cache:       &rank.FileCache{Path: cfg.Rank.CacheFile},
				Backend: &rank.ClaudeBackend{
					APIKey:    cfg.Rank.APIKey,
					Model:     resolveModel(cfg.Rank.Model),
					MaxTokens: cfg.Rank.MaxTokens,
				},
			}
			res = ranker.Rank(cmd.Context(), papers, os.Stderr)
			method = "Claude"
		} else {
			res = rank.Result{
				Ranked:    rank.BySimilarity(papers, prof.Keywords, cfg.Rank.TitleWeight),
				Keywords:  map[string][]string{},
				Summaries: map[string]string{},
			}
		}

		if outFile != "" {
			params := rank.RunParams{
				Categories: cfg.Feed.Categories,
				Days:       cfg.Feed.Days,
				TopN:       cfg.Rank.TopN,
				Method:     method,
			}
			if useLLM {
				params.Model = resolveModel(cfg.Rank.Model)
			}
			if err := rank.WriteRunFile(outFile, params, res); err != nil {
				return fmt.Errorf("writing run file: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Saved run to %s\n", outFile)
		}

		if htmlFile != "" {
			if err := os.MkdirAll(filepath.Dir(htmlFile), 0o755); err != nil {
				return fmt.Errorf("creating report directory: %w", err)
			}
			d := report.Build(res, cfg.Feed.Categories, cfg.Feed.Days, method)
			if err := report.WriteFile(htmlFile, d); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Wrote report to %s\n", htmlFile)
		}

		printRanking(res, cfg.Rank.TopN)
		return nil
	},
}

// printRanking writes the top of the ranking as a fixed-width table.
func printRanking(res rank.Result, limit int) {
	if limit <= 0 || limit > len(res.Ranked) {
		limit = len(res.Ranked)
	}
	fmt.Printf("%-4s %-5s %-16s %s\n", "#", "Score", "ID", "Title")
	for i, s := range res.Ranked[:limit] {
		fmt.Printf("%-4d %4d%% %-16s %s\n", i+1, int(s.Score*100+0.5), s.Paper.ID, truncateTitle(s.Paper.Title, 70))
	}
	if len(res.Ranked) > limit {
		fmt.Printf("... and %d more\n", len(res.Ranked)-limit)
	}
}

// truncateTitle cuts a title to max runes, never splitting a multi-byte
// character, with an ellipsis when something was cut.
func truncateTitle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	rankCmd.Flags().Int("days", 3, "rank papers submitted in the last N days")
	rankCmd.Flags().Int("top-n", 30, "number of keyword-ranked candidates sent to the model")
	rankCmd.Flags().Float64("title-weight", 3.0, "score multiplier for keyword matches in the title")
	rankCmd.Flags().Bool("llm", false, "re-rank top candidates with Claude")
	rankCmd.Flags().String("model", "haiku", "Claude model (haiku, sonnet, or a full model name)")
	rankCmd.Flags().String("keywords-file", "data/keywords.txt", "keyword list, one per line")
	rankCmd.Flags().String("description-file", "data/research_description.txt", "research interest description")
	rankCmd.Flags().String("out", "", "save the ranking to a YAML run file")
	rankCmd.Flags().String("html", "", "render the ranking as an HTML report")

	rootCmd.AddCommand(rankCmd)
}
