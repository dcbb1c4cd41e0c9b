// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

// quoteLimit caps the quote pulled into the narrative for each finding.
const quoteLimit = 300

// nowFunc supplies the narrative generation timestamp. Tests override
// this for reproducible output.
var nowFunc = time.Now

// BuildNarrative renders the review grouped by question: coverage, the
// findings of every source with evidence, the sources without, an error
// section for unresolved sources, and a references list. Apart from the
// timestamp header the output is a pure function of its inputs.
func BuildNarrative(records []types.Record, questions []types.ResearchQuestion, proj types.Project) string {
	var lines []string

	name := proj.Name
	if name == "" {
		name = "Untitled"
	}
	requester := proj.Requester
	if requester == "" {
		requester = unknown
	}

	lines = append(lines,
		fmt.Sprintf("# Literature Review: %s", name),
		"",
		fmt.Sprintf("**Generated:** %s", nowFunc().Format("2006-01-02 15:04")),
		fmt.Sprintf("**Requester:** %s", requester),
		fmt.Sprintf("**Sources analysed:** %d", len(records)),
		fmt.Sprintf("**Research questions:** %d", len(questions)),
		"",
		"---",
		"",
	)

	coverage := CoverageStats(records, questions)

	for _, q := range questions {
		text := strings.TrimSpace(q.Text)
		lines = append(lines,
			fmt.Sprintf("## %s: %s", q.ID, shortTitle(text)),
			"",
			fmt.Sprintf("> %s", text),
			"",
		)

		var withEvidence, withoutEvidence []types.Record
		for _, r := range records {
			if r.Failed() {
				continue
			}
			if r.Evidence(q.ID).HasEvidence {
				withEvidence = append(withEvidence, r)
			} else {
				withoutEvidence = append(withoutEvidence, r)
			}
		}

		cov := coverage[q.ID]
		lines = append(lines,
			fmt.Sprintf("**Evidence found in %d/%d sources (%.0f%%)**", cov.WithEvidence, cov.Total, cov.Percentage),
			"",
		)

		if len(withEvidence) > 0 {
			lines = append(lines, "### Summary of Findings", "")
			for _, r := range withEvidence {
				lines = append(lines, findingLines(r, q.ID)...)
			}
		}

		if len(withoutEvidence) > 0 {
			lines = append(lines, "### Sources Without Evidence for This Question", "")
			for _, r := range withoutEvidence {
				lines = append(lines, fmt.Sprintf("- Source %d: %s", r.SourceNumber, citationOrUnknown(r)))
			}
			lines = append(lines, "")
		}

		lines = append(lines, "---", "")
	}

	var failed []types.Record
	for _, r := range records {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		lines = append(lines, "## Extraction Errors", "")
		for _, r := range failed {
			lines = append(lines, fmt.Sprintf("- Source %d (%s): %s", r.SourceNumber, r.Filename, r.Err))
		}
		lines = append(lines, "", "---", "")
	}

	lines = append(lines, "## References", "")
	refs := make([]types.Record, 0, len(records))
	for _, r := range records {
		if !r.Failed() {
			refs = append(refs, r)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].SourceNumber < refs[j].SourceNumber })
	for _, r := range refs {
		lines = append(lines, fmt.Sprintf("%d. %s. %s", r.SourceNumber, citationOrUnknown(r), r.Title))
	}

	return strings.Join(lines, "\n")
}

// WriteNarrative writes the narrative review to path.
func WriteNarrative(path string, records []types.Record, questions []types.ResearchQuestion, proj types.Project) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	content := BuildNarrative(records, questions, proj)
	return os.WriteFile(path, []byte(content), 0o644)
}

// findingLines renders one source's finding for one question: citation,
// answer, effect size when reported, and the first supporting quote
// truncated with its location.
func findingLines(r types.Record, questionID string) []string {
	entry := r.Evidence(questionID)

	lines := []string{
		fmt.Sprintf("**%s [Source %d]**", citationOrUnknown(r), r.SourceNumber),
		"",
		entry.Answer,
	}

	if entry.EffectSize != "" {
		lines = append(lines, fmt.Sprintf("*Effect size: %s*", entry.EffectSize))
	}

	if len(entry.SupportingQuotes) > 0 {
		first := entry.SupportingQuotes[0]
		if first.Quote != "" {
			lines = append(lines, "", fmt.Sprintf("> %s", truncate(first.Quote, quoteLimit)))
			if first.Location != "" {
				lines = append(lines, fmt.Sprintf("> - %s", first.Location))
			}
		}
	}

	lines = append(lines, "")
	return lines
}

func citationOrUnknown(r types.Record) string {
	if r.Citation == "" {
		return unknown
	}
	return r.Citation
}

// shortTitleDelimiters are natural break points for deriving a section
// heading from a question's full text.
var shortTitleDelimiters = []string{"?", "impact", "affect", "influence", "relationship"}

// shortTitle derives a heading from the question text: cut at the first
// natural break past a minimum length, then cap at 60 characters.
func shortTitle(text string) string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	for _, delim := range shortTitleDelimiters {
		if idx := strings.Index(lower, delim); idx > 20 {
			text = text[:idx]
			break
		}
	}

	text = strings.TrimRight(strings.TrimSpace(text), ",.:;")
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	return text
}
