// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/extract"
	"github.com/pdiddy/review-engine/internal/framing"
	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultSourceDelay = 1 * time.Second
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract per-question evidence from each source PDF",
	Long: `Extract uploads each numbered PDF to Gemini, asks for evidence on every
research question, and persists one JSON record per source. Records that
already exist are skipped, so an interrupted batch resumes where it
stopped; delete a record file to force re-extraction of that source.

Failed sources produce an error record instead of aborting the batch.
Use --start/--end to restrict the run to a range of source numbers.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("model", "", "extraction model (default from project settings)")
	extractCmd.Flags().String("api-key", "", "Gemini API key (overrides env and .secrets/)")
	extractCmd.Flags().String("papers-dir", "papers", "folder holding the numbered PDFs")
	extractCmd.Flags().String("records-dir", "extractions", "folder for per-source extraction records")
	extractCmd.Flags().Int("start", 0, "first source number to process (default: lowest)")
	extractCmd.Flags().Int("end", 0, "last source number to process (default: highest)")
	extractCmd.Flags().Int("max-attempts", defaultMaxAttempts, "generation attempts per source")
	extractCmd.Flags().Duration("delay", defaultSourceDelay, "pause between consecutive extractions")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	projectFile, _ := cmd.Flags().GetString("project")
	pf, err := project.Load(projectFile)
	if err != nil {
		return err
	}
	if len(pf.Sources) == 0 {
		return fmt.Errorf("project has no sources; run ingest first")
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = pf.Settings.ExtractionModel
	}
	explicitKey, _ := cmd.Flags().GetString("api-key")
	apiKey := secrets.GeminiAPIKey(loadedSecrets, explicitKey)
	if apiKey == "" {
		return fmt.Errorf("no Gemini API key: set %s, .secrets/%s, or --api-key", secrets.GeminiKeyEnv, secrets.GeminiKeyFile)
	}

	papersDir, _ := cmd.Flags().GetString("papers-dir")
	recordsDir, _ := cmd.Flags().GetString("records-dir")
	start, _ := cmd.Flags().GetInt("start")
	end, _ := cmd.Flags().GetInt("end")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	delay, _ := cmd.Flags().GetDuration("delay")

	cfg := types.ExtractionConfig{
		AIConfig: types.AIConfig{
			Model:       model,
			APIKey:      apiKey,
			MaxAttempts: maxAttempts,
		},
		Temperature: pf.Settings.Temperature,
		PapersDir:   papersDir,
		RecordsDir:  recordsDir,
		SourceDelay: delay,
	}

	framed := pf.ContextTranslated
	if framed == "" {
		framed = framing.Fallback(pf.ContextRaw)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, err := extract.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	if err != nil {
		return err
	}

	recordStore, err := store.NewRecordStore(cfg.RecordsDir)
	if err != nil {
		return err
	}

	runner := &extract.Runner{
		Client:    extract.NewClient(provider, cfg.MaxAttempts, os.Stdout),
		Store:     recordStore,
		PapersDir: cfg.PapersDir,
		Delay:     cfg.SourceDelay,
	}

	_, summary := runner.Run(ctx, pf.Sources, pf.ResearchQuestions, framed, extract.Options{Start: start, End: end}, os.Stdout)
	if summary.HasFailures() {
		return fmt.Errorf("%d source(s) failed extraction", summary.Failed)
	}
	return nil
}
