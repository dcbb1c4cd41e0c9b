// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

// backoffBase controls the unit for exponential backoff between
// generation attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// backoffDelay returns the wait after a failed attempt (zero-indexed):
// 2s, 4s, 8s, doubling without cap.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 2 * backoffBase
}

// Client turns one (document, question set, framing) triple into exactly
// one extraction record. All failure is encoded in the record; Extract
// never returns an error.
type Client struct {
	provider    Provider
	maxAttempts int
	progress    io.Writer
}

// NewClient constructs an extraction client. maxAttempts below 1 defaults
// to 3; a nil progress writer discards per-attempt output.
func NewClient(provider Provider, maxAttempts int, progress io.Writer) *Client {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Client{
		provider:    provider,
		maxAttempts: maxAttempts,
		progress:    progress,
	}
}

// Extract uploads the document, then runs the generation/parse loop with
// exponential backoff until a attempt succeeds or attempts are exhausted.
// Upload failure is terminal immediately: only generation is retried.
// The uploaded handle is released best-effort exactly once on every exit
// path.
func (c *Client) Extract(ctx context.Context, pdfPath string, sourceNumber int, questions []types.ResearchQuestion, framing string) types.Record {
	filename := filepath.Base(pdfPath)

	doc, err := c.provider.Upload(ctx, pdfPath)
	if err != nil {
		return types.FailureRecord(sourceNumber, filename, fmt.Sprintf("Failed to upload PDF: %v", err))
	}
	defer c.release(ctx, doc)

	prompt, err := buildPrompt(sourceNumber, filename, questions, framing)
	if err != nil {
		return types.FailureRecord(sourceNumber, filename, err.Error())
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		text, genErr := c.provider.Generate(ctx, doc, prompt)
		if genErr == nil {
			p, decodeErr := decodePayload(text)
			switch {
			case decodeErr != nil:
				lastErr = fmt.Errorf("parsing response JSON: %w", decodeErr)
			default:
				if missing := missingQuestions(p.Extractions, questions); len(missing) > 0 {
					lastErr = fmt.Errorf("response missing questions: %s", strings.Join(missing, ", "))
				} else {
					return successRecord(sourceNumber, filename, p)
				}
			}
		} else {
			lastErr = genErr
		}

		fmt.Fprintf(c.progress, "    attempt %d/%d failed: %v\n", attempt+1, c.maxAttempts, lastErr)

		if attempt < c.maxAttempts-1 {
			wait := backoffDelay(attempt)
			fmt.Fprintf(c.progress, "    waiting %v before retry\n", wait)
			select {
			case <-ctx.Done():
				return types.FailureRecord(sourceNumber, filename, ctx.Err().Error())
			case <-time.After(wait):
			}
		}
	}

	return types.FailureRecord(sourceNumber, filename, lastErr.Error())
}

// release deletes the uploaded handle. Deletion errors are swallowed:
// the provider expires stale uploads on its own.
func (c *Client) release(ctx context.Context, doc Upload) {
	_ = c.provider.Delete(ctx, doc)
}

// missingQuestions returns the ids of questions absent from the model's
// extractions map, in question order. A missing id is a contract
// violation by the generation step, so the attempt is treated as failed.
func missingQuestions(extractions map[string]types.EvidenceEntry, questions []types.ResearchQuestion) []string {
	var missing []string
	for _, q := range questions {
		if _, ok := extractions[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	sort.Strings(missing)
	return missing
}

// successRecord builds the success variant from a parsed payload. The
// source number and filename come from local metadata, overriding
// whatever the model echoed back.
func successRecord(sourceNumber int, filename string, p *payload) types.Record {
	extractions := p.Extractions
	if extractions == nil {
		extractions = map[string]types.EvidenceEntry{}
	}
	return types.Record{
		SourceNumber: sourceNumber,
		Filename:     filename,
		Citation:     p.Citation,
		Title:        p.Title,
		StudyType:    p.StudyType,
		Sample:       p.Sample,
		Extractions:  extractions,
	}
}
