// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the searchable evidence index (store, retrieve)",
	Long: `Index maintains a local SQLite database built from the extraction
records, with FTS5 full-text search over answers and quotes. Use
subcommands to ingest records or query the indexed evidence.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest extraction records into the evidence index",
	Long: `Store reads the per-source extraction records, ingests them into a
SQLite database with FTS5 indexing, and reports what changed. Records
whose files are unchanged since the last run are skipped.`,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	cfg, recordsDir := indexConfig(cmd)

	idx, err := store.NewIndex(cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	summary, err := idx.Ingest(context.Background(), recordsDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the evidence index with full-text search and filters",
	Long: `Retrieve searches the evidence index using FTS5 full-text search,
structured filters (question, direction, source, evidence flag), or a
combination of both. Results carry the source citation so they can be
cited directly.`,
	RunE: runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	cfg, _ := indexConfig(cmd)

	idx, err := store.NewIndex(cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --question, --direction, --source, or --evidence")
	}

	results, err := idx.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-6s  %-8s  %-12s  %s\n",
		"Source", "RQ", "Evidence", "Direction", "Answer")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range results {
		answer := r.Answer
		if len(answer) > 60 {
			answer = answer[:57] + "..."
		}
		flag := "N"
		if r.HasEvidence {
			flag = "Y"
		}
		fmt.Fprintf(os.Stdout, "%-8d  %-6s  %-8s  %-12s  %s\n",
			r.SourceNumber, r.QuestionID, flag, r.Direction, answer)
	}
	return nil
}

func indexConfig(cmd *cobra.Command) (types.IndexConfig, string) {
	recordsDir, _ := cmd.Flags().GetString("records-dir")
	indexDir, _ := cmd.Flags().GetString("index-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.IndexConfig{
		RecordsDir: recordsDir,
		IndexDir:   indexDir,
		MaxResults: maxResults,
	}, recordsDir
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	opts := store.QueryOptions{
		Query: strings.Join(args, " "),
	}
	opts.QuestionID, _ = cmd.Flags().GetString("question")
	direction, _ := cmd.Flags().GetString("direction")
	opts.Direction = types.Direction(direction)
	opts.SourceNumber, _ = cmd.Flags().GetInt("source")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")

	if cmd.Flags().Changed("evidence") {
		hasEvidence, _ := cmd.Flags().GetBool("evidence")
		opts.HasEvidence = &hasEvidence
	}
	return opts
}

func init() {
	for _, c := range []*cobra.Command{indexStoreCmd, indexRetrieveCmd} {
		c.Flags().String("records-dir", "extractions", "folder holding per-source extraction records")
		c.Flags().String("index-dir", "index", "folder holding the SQLite evidence index")
	}

	indexRetrieveCmd.Flags().String("question", "", "filter by research question id (e.g. RQ1)")
	indexRetrieveCmd.Flags().String("direction", "", "filter by effect direction (positive, negative, mixed, none)")
	indexRetrieveCmd.Flags().Int("source", 0, "filter by source number")
	indexRetrieveCmd.Flags().Bool("evidence", false, "filter by evidence flag")
	indexRetrieveCmd.Flags().Int("max-results", 0, "maximum results to return (default 20)")
	indexRetrieveCmd.Flags().Bool("json", false, "emit results as JSON")

	indexCmd.AddCommand(indexStoreCmd)
	indexCmd.AddCommand(indexRetrieveCmd)
	rootCmd.AddCommand(indexCmd)
}
