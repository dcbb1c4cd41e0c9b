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

	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Options selects the numeric source window for a batch run.
type Options struct {
	// Start is the first source number to process (default 1).
	Start int

	// End is the last source number, inclusive. Zero means the highest
	// source number present.
	End int
}

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of sources processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any sources failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Runner applies the extraction client across a numeric window of
// sources, strictly sequentially, persisting each record immediately
// after its own completion. Resumption after an interrupted run needs no
// checkpoint log: sources whose record file already exists are reused
// without calling the provider.
type Runner struct {
	Client    *Client
	Store     *store.RecordStore
	PapersDir string

	// Delay is the pause between consecutive extractions, applied only
	// after a source that actually called the provider.
	Delay time.Duration
}

// Run processes every source whose number falls in the window, in
// ascending number order. One source's failure never halts the batch;
// the returned records preserve selection order.
func (r *Runner) Run(ctx context.Context, sources map[int]types.Source, questions []types.ResearchQuestion, framing string, opts Options, w io.Writer) ([]types.Record, BatchSummary) {
	start := opts.Start
	if start < 1 {
		start = 1
	}
	end := opts.End
	if end == 0 {
		for n := range sources {
			if n > end {
				end = n
			}
		}
	}

	var selected []int
	for n := range sources {
		if n >= start && n <= end {
			selected = append(selected, n)
		}
	}
	sort.Ints(selected)

	var (
		records []types.Record
		summary BatchSummary
	)

	for _, num := range selected {
		select {
		case <-ctx.Done():
			fmt.Fprintf(w, "interrupted after %d source(s): %v\n", summary.Total(), ctx.Err())
			return records, summary
		default:
		}

		src := sources[num]
		key := store.Key(src.Filename)

		if r.Store.Exists(key) {
			if rec, err := r.Store.Load(key); err == nil {
				fmt.Fprintf(w, "  [%d/%d] %s (skipped - already extracted)\n", num, end, src.Filename)
				records = append(records, rec)
				summary.Skipped++
				continue
			}
			// Unreadable record: fall through and re-extract.
		}

		fmt.Fprintf(w, "  [%d/%d] %s\n", num, end, src.Filename)

		rec := r.Client.Extract(ctx, filepath.Join(r.PapersDir, src.Filename), num, questions, framing)

		if err := r.Store.Save(key, rec); err != nil {
			fmt.Fprintf(w, "          warning: persisting record failed: %v\n", err)
		}

		reportOutcome(w, rec, questions)
		records = append(records, rec)
		if rec.Failed() {
			summary.Failed++
		} else {
			summary.Extracted++
		}

		if r.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.Delay):
			}
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Total())

	return records, summary
}

// reportOutcome prints one line per completed source: the per-question
// evidence flags on success, or a truncated error message on failure.
func reportOutcome(w io.Writer, rec types.Record, questions []types.ResearchQuestion) {
	if rec.Failed() {
		msg := rec.Err
		if runes := []rune(msg); len(runes) > 50 {
			msg = string(runes[:50]) + "..."
		}
		fmt.Fprintf(w, "          ERROR: %s\n", msg)
		return
	}

	flags := make([]string, 0, len(questions))
	for _, q := range questions {
		flag := "N"
		if rec.Evidence(q.ID).HasEvidence {
			flag = "Y"
		}
		flags = append(flags, fmt.Sprintf("%s: %s", q.ID, flag))
	}
	fmt.Fprintf(w, "          Done -> %s\n", strings.Join(flags, " | "))
}
