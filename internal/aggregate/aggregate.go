// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate folds persisted extraction records into the review
// artifacts: an evidence matrix, a narrative review grouped by question,
// a supporting-quotes export, and coverage statistics. Everything here is
// a pure function of the record set; no provider calls are made and
// missing optional data degrades to placeholders rather than failing.
package aggregate

import (
	"github.com/pdiddy/review-engine/pkg/types"
)

// unknown is the placeholder for absent metadata in reports.
const unknown = "Unknown"

// truncate caps s at max characters, ellipsis-truncated. Counting is by
// rune so multi-byte text is never split mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// nonErrorCount returns the number of success-variant records.
func nonErrorCount(records []types.Record) int {
	n := 0
	for _, r := range records {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// CoverageStats computes per-question evidence coverage over the
// non-error records. A question with no non-error records reports 0%.
func CoverageStats(records []types.Record, questions []types.ResearchQuestion) map[string]types.Coverage {
	total := nonErrorCount(records)

	stats := make(map[string]types.Coverage, len(questions))
	for _, q := range questions {
		withEvidence := 0
		for _, r := range records {
			if r.Failed() {
				continue
			}
			if r.Evidence(q.ID).HasEvidence {
				withEvidence++
			}
		}
		cov := types.Coverage{WithEvidence: withEvidence, Total: total}
		if total > 0 {
			cov.Percentage = float64(withEvidence) / float64(total) * 100
		}
		stats[q.ID] = cov
	}
	return stats
}

// Summary holds run-level statistics for the terminal report.
type Summary struct {
	TotalSources int
	Succeeded    int
	Failed       int

	// StudyTypes counts success records per reported study type.
	StudyTypes map[string]int

	// Coverage is the per-question evidence coverage.
	Coverage map[string]types.Coverage
}

// Summarize computes run-level statistics for a record set.
func Summarize(records []types.Record, questions []types.ResearchQuestion) Summary {
	s := Summary{
		TotalSources: len(records),
		StudyTypes:   map[string]int{},
		Coverage:     CoverageStats(records, questions),
	}
	for _, r := range records {
		if r.Failed() {
			s.Failed++
			continue
		}
		s.Succeeded++
		st := r.StudyType
		if st == "" {
			st = "unknown"
		}
		s.StudyTypes[st]++
	}
	return s
}
