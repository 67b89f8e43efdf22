// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-radar/internal/archive"
	"github.com/pdiddy/paper-radar/internal/feed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent submissions and archive them locally",
	Long: `Fetch queries the arXiv Atom feed for submissions to the watched
categories over the last N days and upserts them into the local archive.
Re-running fetch is safe: papers already archived are updated in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cmd.Flags().Changed("categories") {
			cfg.Feed.Categories, _ = cmd.Flags().GetStringSlice("categories")
		}
		if cmd.Flags().Changed("days") {
			cfg.Feed.Days, _ = cmd.Flags().GetInt("days")
		}

		client := &feed.Client{HTTP: &http.Client{Timeout: cfg.Feed.Timeout}}
		fmt.Fprintf(os.Stderr, "Fetching %v, last %d days...\n", cfg.Feed.Categories, cfg.Feed.Days)

		papers, err := client.FetchRecent(cmd.Context(), cfg.Feed)
		if err != nil {
			return fmt.Errorf("fetching feed: %w", err)
		}

		store, err := archive.Open(cfg.Archive.DataDir)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer store.Close()

		if err := store.SavePapers(cmd.Context(), papers); err != nil {
			return fmt.Errorf("archiving papers: %w", err)
		}

		fmt.Printf("Fetched %d papers into %s\n", len(papers), cfg.Archive.DataDir)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringSlice("categories", nil, "arXiv categories to watch (default astro-ph.CO,astro-ph.GA,astro-ph.IM)")
	fetchCmd.Flags().Int("days", 3, "how many days back to fetch")

	rootCmd.AddCommand(fetchCmd)
}
