// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package framing turns the requester's plain-language context into the
// neutral "light framing" paragraph the extraction prompt embeds. The
// translation uses the generation API; a deterministic fallback covers
// runs without an API key.
package framing

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/review-engine/pkg/types"
)

// TextBackend abstracts plain-text generation so tests can supply a mock.
type TextBackend interface {
	GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
}

const defaultMaxOutputTokens = 500

// notSpecified fills absent request fields in prompts and fallbacks.
const notSpecified = "Not specified"

var framingPromptTmpl = template.Must(template.New("framing").Parse(`You are helping structure context for an academic literature review extraction task.

The requester provided this plain-language description of their review:

---
WHAT THIS REVIEW IS ABOUT:
{{.Description}}

TARGET POPULATION:
{{.Population}}

KEY CONSTRUCTS OF INTEREST:
{{.Constructs}}

FOCUS AREA:
{{.Focus}}
---

Rewrite this as a concise "light framing" paragraph (4-6 sentences) that:
1. States the review's focus clearly in the first sentence
2. Defines the target population precisely
3. Lists key constructs with brief operational definitions
4. Notes the application context

The framing should help an AI extraction model understand what to look for WITHOUT biasing it toward any particular findings or conclusions. Use neutral, descriptive language.

Output ONLY the framing paragraph, nothing else. Use this structure:

This review examines [topic] in [population with age range if specified].

Key constructs of interest include:
- [Construct 1]: [brief definition]
- [Construct 2]: [brief definition]
- [etc.]

The focus is on findings relevant to [application context].`))

// Translate converts the raw context into the light framing paragraph
// via the text backend.
func Translate(ctx context.Context, backend TextBackend, raw types.ContextRaw, maxOutputTokens int32) (string, error) {
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	var buf bytes.Buffer
	if err := framingPromptTmpl.Execute(&buf, promptFields(raw)); err != nil {
		return "", fmt.Errorf("rendering framing prompt: %w", err)
	}

	text, err := backend.GenerateText(ctx, buf.String(), maxOutputTokens)
	if err != nil {
		return "", fmt.Errorf("translating framing: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func promptFields(raw types.ContextRaw) types.ContextRaw {
	return types.ContextRaw{
		Description: orDefault(raw.Description, notSpecified),
		Population:  orDefault(raw.Population, notSpecified),
		Constructs:  orDefault(raw.Constructs, notSpecified),
		Focus:       orDefault(raw.Focus, notSpecified),
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Fallback builds a simple framing without the API, for skipped or
// offline runs.
func Fallback(raw types.ContextRaw) string {
	return fmt.Sprintf(`This review examines %s

Target population: %s

Key constructs of interest: %s

The focus is on findings relevant to %s.`,
		orDefault(raw.Description, "the specified topic"),
		orDefault(raw.Population, "the target population"),
		orDefault(raw.Constructs, "relevant constructs"),
		orDefault(raw.Focus, "the specified context"))
}

// Validate checks a framing for completeness and returns warnings for a
// human reviewer. An empty warning list means the framing looks usable.
func Validate(framing string) []string {
	var warnings []string

	if len(framing) < 100 {
		warnings = append(warnings, "framing is very short (< 100 characters)")
	}
	if len(framing) > 2000 {
		warnings = append(warnings, "framing is very long (> 2000 characters)")
	}

	lower := strings.ToLower(framing)
	if !strings.Contains(lower, "population") && !strings.Contains(lower, "participants") {
		warnings = append(warnings, "framing may not clearly specify target population")
	}
	if !strings.Contains(lower, "construct") && !strings.Contains(framing, "-") {
		warnings = append(warnings, "framing may not list key constructs")
	}

	return warnings
}
