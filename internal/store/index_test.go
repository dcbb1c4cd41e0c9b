// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

func indexSetup(t *testing.T) (*Index, string) {
	t.Helper()
	tmpDir := t.TempDir()
	recordsDir := filepath.Join(tmpDir, "extractions")

	s, err := NewRecordStore(recordsDir)
	if err != nil {
		t.Fatal(err)
	}

	records := []types.Record{
		{
			SourceNumber: 1, Filename: "01_Kong_2023.pdf",
			Citation: "Kong et al. (2023)", Title: "Screens and Sleep",
			StudyType: "cross-sectional",
			Extractions: map[string]types.EvidenceEntry{
				"RQ1": {
					HasEvidence:      true,
					Answer:           "Higher screen time predicted poorer sleep quality.",
					SupportingQuotes: []types.Quote{{Quote: "bedtime scrolling delayed sleep onset", Location: "p. 4"}},
					EffectSize:       "r = -0.31",
					Direction:        types.DirectionNegative,
				},
				"RQ2": {HasEvidence: false, Answer: "No relevant evidence in this article."},
			},
		},
		{
			SourceNumber: 2, Filename: "02_Smith_2024.pdf",
			Citation: "Smith & Jones (2024)", Title: "Attention in the Digital Age",
			Extractions: map[string]types.EvidenceEntry{
				"RQ1": {HasEvidence: false, Answer: "No relevant evidence in this article."},
				"RQ2": {
					HasEvidence: true,
					Answer:      "Attention spans showed mixed changes across cohorts.",
					Direction:   types.DirectionMixed,
				},
			},
		},
		types.FailureRecord(3, "03_Broken_2021.pdf", "Failed to upload PDF: quota exceeded"),
	}
	for _, r := range records {
		if err := s.Save(Key(r.Filename), r); err != nil {
			t.Fatal(err)
		}
	}

	idx, err := NewIndex(types.IndexConfig{
		RecordsDir: recordsDir,
		IndexDir:   filepath.Join(tmpDir, "index"),
		MaxResults: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	return idx, recordsDir
}

func TestIngest(t *testing.T) {
	idx, recordsDir := indexSetup(t)

	var out strings.Builder
	summary, err := idx.Ingest(context.Background(), recordsDir, &out)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Indexed != 3 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "indexed: 3, updated: 0, skipped: 0, failed: 0") {
		t.Errorf("missing summary line:\n%s", out.String())
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	idx, recordsDir := indexSetup(t)

	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}
	summary, err := idx.Ingest(context.Background(), recordsDir, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 3 || summary.Indexed != 0 {
		t.Errorf("second run summary = %+v, want all skipped", summary)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	idx, recordsDir := indexSetup(t)

	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}

	// Touch one record file with a different mod time.
	path := filepath.Join(recordsDir, "01_Kong_2023.json")
	newTime := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatal(err)
	}

	summary, err := idx.Ingest(context.Background(), recordsDir, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 1 updated, 2 skipped", summary)
	}

	// The re-index must not duplicate evidence rows.
	results, err := idx.Retrieve(context.Background(), QueryOptions{SourceNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("source 1 has %d evidence rows after update, want 2", len(results))
	}
}

func TestRetrieveFullText(t *testing.T) {
	idx, recordsDir := indexSetup(t)
	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}

	// Matches the answer text of source 1 / RQ1.
	results, err := idx.Retrieve(context.Background(), QueryOptions{Query: "sleep"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results for full-text query")
	}
	r := results[0]
	if r.SourceNumber != 1 || r.QuestionID != "RQ1" {
		t.Errorf("top result = %d/%s", r.SourceNumber, r.QuestionID)
	}
	if r.Citation != "Kong et al. (2023)" {
		t.Errorf("citation not joined: %q", r.Citation)
	}
	if len(r.Quotes) != 1 || r.Quotes[0].Location != "p. 4" {
		t.Errorf("quotes not restored: %+v", r.Quotes)
	}
}

func TestRetrieveQuoteText(t *testing.T) {
	idx, recordsDir := indexSetup(t)
	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}

	// "scrolling" appears only inside a supporting quote.
	results, err := idx.Retrieve(context.Background(), QueryOptions{Query: "scrolling"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].SourceNumber != 1 {
		t.Errorf("quote search results = %+v", results)
	}
}

func TestRetrieveFilters(t *testing.T) {
	idx, recordsDir := indexSetup(t)
	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}

	hasEvidence := true
	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"by question", QueryOptions{QuestionID: "RQ1"}, 2},
		{"by direction", QueryOptions{Direction: types.DirectionMixed}, 1},
		{"by evidence flag", QueryOptions{HasEvidence: &hasEvidence}, 2},
		{"by source", QueryOptions{SourceNumber: 2}, 2},
		{"combined", QueryOptions{QuestionID: "RQ1", HasEvidence: &hasEvidence}, 1},
		{"no match", QueryOptions{QuestionID: "RQ9"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Retrieve(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d results, want %d", len(results), tt.want)
			}
		})
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	idx, recordsDir := indexSetup(t)
	if _, err := idx.Ingest(context.Background(), recordsDir, io.Discard); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Retrieve(context.Background(), QueryOptions{QuestionID: "RQ1", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Query: "x"}).IsEmpty() {
		t.Error("query should count")
	}
	f := false
	if (QueryOptions{HasEvidence: &f}).IsEmpty() {
		t.Error("evidence filter should count even when false")
	}
	if (QueryOptions{MaxResults: 5}).IsEmpty() != true {
		t.Error("max results alone is not a filter")
	}
}
