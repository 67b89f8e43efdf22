// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model score cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the model score cache",
	Long: `Clear deletes the cached model verdicts. The next 'rank --llm' run will
re-score every candidate. The cache also invalidates itself automatically
when the keyword or description files change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		err := os.Remove(cfg.Rank.CacheFile)
		if os.IsNotExist(err) {
			fmt.Println("No cache to clear.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("Cleared %s\n", cfg.Rank.CacheFile)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
