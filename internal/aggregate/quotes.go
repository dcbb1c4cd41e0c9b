// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/review-engine/pkg/types"
)

// WriteQuotesCSV exports every supporting quote to a CSV for manual
// verification. The trailing Verified column is left empty for the
// reviewer to fill in.
func WriteQuotesCSV(path string, records []types.Record, questions []types.ResearchQuestion) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating quotes file: %w", err)
	}

	w := csv.NewWriter(f)
	header := []string{"Source #", "Citation", "Question", "Quote #", "Quote", "Location", "Verified"}
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing quotes header: %w", err)
	}

	for _, r := range records {
		if r.Failed() {
			continue
		}
		for _, q := range questions {
			entry := r.Evidence(q.ID)
			if !entry.HasEvidence {
				continue
			}
			for i, quote := range entry.SupportingQuotes {
				row := []string{
					strconv.Itoa(r.SourceNumber),
					citationOrUnknown(r),
					q.ID,
					strconv.Itoa(i + 1),
					quote.Quote,
					quote.Location,
					"",
				}
				if err := w.Write(row); err != nil {
					f.Close()
					return fmt.Errorf("writing quote row for source %d: %w", r.SourceNumber, err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing quotes: %w", err)
	}
	return f.Close()
}
