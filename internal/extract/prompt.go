// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/review-engine/pkg/types"
)

// NoEvidencePlaceholder is the fixed answer the model must return for a
// question the article does not address.
const NoEvidencePlaceholder = "No relevant evidence in this article."

// extractionPromptTmpl is the prompt sent to the generation API for each
// source document. The question list and the output schema are rendered
// per project, so the same prompt serves any question set.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a research assistant extracting evidence from academic articles for a systematic literature review.

## Context
{{.Context}}

## Your Task
Read this article carefully and answer each research question below based ONLY on evidence explicitly stated in the article.

Source Number: {{.SourceNumber}}
Filename: {{.Filename}}

## Research Questions

{{.QuestionBlock}}

## Required Output Format

Return a JSON object with exactly this structure:

{
  "source_number": {{.SourceNumber}},
  "filename": "{{.Filename}}",
  "citation": "<Author (Year) format - use 'et al.' for 3+ authors>",
  "title": "<Full article title as it appears>",
  "study_type": "<meta-analysis / systematic review / RCT / quasi-experimental / longitudinal / cross-sectional / qualitative / theoretical / other>",
  "sample": {
    "n": <number or null if not applicable>,
    "age_range": "<age range string or null>",
    "population": "<description of participants>",
    "notes": "<any relevant notes about the sample>"
  },
  "extractions": {
{{.SchemaBlock}}
  }
}

## Critical Instructions

1. **Evidence-based only**: Report ONLY findings explicitly stated in the article. Do not infer, speculate, or generalise beyond what the text says.

2. **Exact quotes required**: For each question where has_evidence is true, provide at least one exact quote from the article with its location (page number, section name, or paragraph reference).

3. **No evidence is valid**: If the article does not address a research question, set has_evidence to false and state "{{.Placeholder}}" in the answer field. Every question MUST have an entry in extractions.

4. **Effect sizes**: Report effect sizes exactly as stated (e.g., "r = 0.35", "d = 0.42", "OR = 2.1", "beta = -0.23"). Set to null if not reported or not applicable.

5. **Direction**:
   - "positive" = exposure associated with BETTER outcomes
   - "negative" = exposure associated with WORSE outcomes
   - "mixed" = findings show both positive and negative effects
   - null = no evidence or not applicable

6. **Study type**: Classify based on the methodology section. Use "other" only if none of the categories fit.

7. **Citation format**: "Author (Year)" for 1-2 authors, "Author et al. (Year)" for 3+ authors.

Return ONLY valid JSON. No markdown formatting, no explanatory text.`))

// promptData carries the rendered blocks into the extraction template.
type promptData struct {
	Context       string
	SourceNumber  int
	Filename      string
	QuestionBlock string
	SchemaBlock   string
	Placeholder   string
}

// buildPrompt renders the deterministic extraction prompt for one source.
func buildPrompt(sourceNumber int, filename string, questions []types.ResearchQuestion, framing string) (string, error) {
	data := promptData{
		Context:       framing,
		SourceNumber:  sourceNumber,
		Filename:      filename,
		QuestionBlock: questionBlock(questions),
		SchemaBlock:   schemaBlock(questions),
		Placeholder:   NoEvidencePlaceholder,
	}

	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}
	return buf.String(), nil
}

// questionBlock renders one "### RQn" section per question, with its
// keywords when present.
func questionBlock(questions []types.ResearchQuestion) string {
	sections := make([]string, 0, len(questions))
	for _, q := range questions {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n%s", q.ID, strings.TrimSpace(q.Text))
		if len(q.Keywords) > 0 {
			fmt.Fprintf(&b, "\nRelevant keywords: %s", strings.Join(q.Keywords, ", "))
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// schemaBlock renders the expected JSON entry for every question id, so
// the model sees the full required key set.
func schemaBlock(questions []types.ResearchQuestion) string {
	entries := make([]string, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, fmt.Sprintf(`    %q: {
      "has_evidence": <true/false>,
      "answer": "<summary of findings OR '%s'>",
      "supporting_quotes": [
        {"quote": "<exact quote from article>", "location": "<page number or section>"}
      ],
      "effect_size": "<as reported in article, or null>",
      "direction": "<positive/negative/mixed/null>"
    }`, q.ID, strings.TrimSuffix(NoEvidencePlaceholder, ".")))
	}
	return strings.Join(entries, ",\n")
}
