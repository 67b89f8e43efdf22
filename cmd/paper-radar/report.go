// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-radar/internal/rank"
	"github.com/pdiddy/paper-radar/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a saved ranking run as an HTML report",
	Long: `Report re-renders a run file previously saved with 'rank --out' as an
HTML report, without refetching or re-scoring anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		runFile, _ := cmd.Flags().GetString("run")
		outFile, _ := cmd.Flags().GetString("out")
		if runFile == "" {
			return fmt.Errorf("--run is required")
		}
		if outFile == "" {
			outFile = filepath.Join(cfg.Report.OutputDir, "report.html")
		}

		rf, err := rank.ReadRunFile(runFile)
		if err != nil {
			return err
		}

		categories := rf.Params.Categories
		if len(categories) == 0 {
			categories = cfg.Feed.Categories
		}

		if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
		d := report.Build(rf.ToResult(), categories, rf.Params.Days, rf.Params.Method)
		if err := report.WriteFile(outFile, d); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		fmt.Printf("Wrote report for %d papers to %s\n", rf.Summary.Total, outFile)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("run", "", "run file saved by 'rank --out'")
	reportCmd.Flags().String("out", "", "output HTML path (default <output_dir>/report.html)")

	rootCmd.AddCommand(reportCmd)
}
