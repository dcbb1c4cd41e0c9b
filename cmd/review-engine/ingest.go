// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/ingest"
	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [request-file]",
	Short: "Number sources and rename inbox PDFs into the papers folder",
	Long: `Ingest reads a review request YAML (research questions, citation list,
review context), numbers the citations in order, matches each citation
against the PDFs in the inbox folder by author surname and year, and
copies matched PDFs into the papers folder under numbered names like
03_Kong_2023.pdf. The numbered plan is written to the project file that
the later stages read.

Unmatched citations are reported but do not fail the run; re-running
ingest after dropping the missing PDFs into the inbox fills the gaps.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("inbox-dir", "inbox", "folder holding the original PDFs")
	ingestCmd.Flags().String("papers-dir", "papers", "destination folder for renamed PDFs")
	ingestCmd.Flags().Bool("dry-run", false, "report the matching plan without copying files")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	requestFile := "review_request.yaml"
	if len(args) > 0 {
		requestFile = args[0]
	}
	inboxDir, _ := cmd.Flags().GetString("inbox-dir")
	papersDir, _ := cmd.Flags().GetString("papers-dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	projectFile, _ := cmd.Flags().GetString("project")

	cfg := types.IngestConfig{
		RequestFile: requestFile,
		InboxDir:    inboxDir,
		PapersDir:   papersDir,
		ProjectFile: projectFile,
	}

	req, err := ingest.LoadRequest(cfg.RequestFile)
	if err != nil {
		return err
	}

	sources := ingest.ParseCitations(req.Citations)
	if len(sources) == 0 {
		return fmt.Errorf("no citations found in %s", requestFile)
	}

	matched, leftover, err := ingest.MatchPDFs(sources, cfg.InboxDir)
	if err != nil {
		return err
	}

	found := 0
	for _, s := range matched {
		if s.OriginalFilename != "" {
			found++
		}
	}
	fmt.Fprintf(os.Stdout, "Numbered %d source(s); matched %d PDF(s)\n", len(matched), found)
	for _, name := range leftover {
		fmt.Fprintf(os.Stdout, "  [UNASSIGNED PDF] %s\n", name)
	}

	if dryRun {
		for _, s := range matched {
			if s.OriginalFilename == "" {
				continue
			}
			fmt.Fprintf(os.Stdout, "  %s -> %s\n", s.OriginalFilename, s.RenamedFilename)
		}
		return nil
	}

	for _, problem := range ingest.ValidateSetup(matched, cfg.InboxDir) {
		fmt.Fprintf(os.Stderr, "  [WARNING] %s\n", problem)
	}

	if err := ingest.CopyRenamed(matched, cfg.InboxDir, cfg.PapersDir, os.Stdout); err != nil {
		return err
	}

	pf := ingest.BuildProjectFile(req, matched)
	if err := project.Save(cfg.ProjectFile, pf); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote project file: %s\n", cfg.ProjectFile)
	return nil
}
