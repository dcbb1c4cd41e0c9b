// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/aggregate"
	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build the evidence matrix, narrative report, and quote sheet",
	Long: `Aggregate loads every persisted extraction record and writes three
artifacts to the output folder:

  evidence_matrix.csv    one row per source, one column block per question
  narrative_report.md    per-question findings with supporting quotes
  quotes.csv             every supporting quote, for manual verification

Failed sources appear as error rows in the matrix and in a dedicated
errors section of the report, so gaps in coverage stay visible.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().String("records-dir", "extractions", "folder holding per-source extraction records")
	aggregateCmd.Flags().String("output-dir", "output", "destination folder for the artifacts")

	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	projectFile, _ := cmd.Flags().GetString("project")
	pf, err := project.Load(projectFile)
	if err != nil {
		return err
	}

	recordsDir, _ := cmd.Flags().GetString("records-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	cfg := types.AggregationConfig{
		RecordsDir: recordsDir,
		OutputDir:  outputDir,
	}

	recordStore, err := store.NewRecordStore(cfg.RecordsDir)
	if err != nil {
		return err
	}
	records, err := recordStore.LoadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no extraction records in %s; run extract first", cfg.RecordsDir)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	matrixPath := filepath.Join(cfg.OutputDir, "evidence_matrix.csv")
	if err := aggregate.WriteMatrixCSV(matrixPath, records, pf.ResearchQuestions); err != nil {
		return err
	}
	narrativePath := filepath.Join(cfg.OutputDir, "narrative_report.md")
	if err := aggregate.WriteNarrative(narrativePath, records, pf.ResearchQuestions, pf.Project); err != nil {
		return err
	}
	quotesPath := filepath.Join(cfg.OutputDir, "quotes.csv")
	if err := aggregate.WriteQuotesCSV(quotesPath, records, pf.ResearchQuestions); err != nil {
		return err
	}

	summary := aggregate.Summarize(records, pf.ResearchQuestions)
	fmt.Fprintf(os.Stdout, "Aggregated %d record(s): %d succeeded, %d failed\n",
		summary.TotalSources, summary.Succeeded, summary.Failed)

	ids := make([]string, 0, len(summary.Coverage))
	for id := range summary.Coverage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cov := summary.Coverage[id]
		fmt.Fprintf(os.Stdout, "  %s: evidence in %d/%d sources (%.0f%%)\n",
			id, cov.WithEvidence, cov.Total, cov.Percentage)
	}

	fmt.Fprintf(os.Stdout, "Wrote %s, %s, %s\n", matrixPath, narrativePath, quotesPath)
	return nil
}
