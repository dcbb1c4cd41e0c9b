// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func intPtr(n int) *int { return &n }

func successRecord(num int, filename string) types.Record {
	return types.Record{
		SourceNumber: num,
		Filename:     filename,
		Citation:     "Kong et al. (2023)",
		Title:        "Screens & Sleep",
		StudyType:    "RCT",
		Sample:       types.Sample{N: intPtr(100)},
		Extractions: map[string]types.EvidenceEntry{
			"RQ1": {
				HasEvidence:      true,
				Answer:           "Yes, café-goers slept less.",
				SupportingQuotes: []types.Quote{{Quote: "a < b", Location: "p. 3"}},
				Direction:        types.DirectionNegative,
			},
		},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"03_Kong_2023.pdf", "03_Kong_2023"},
		{"papers/03_Kong_2023.pdf", "03_Kong_2023"},
		{"no_extension", "no_extension"},
	}
	for _, tt := range tests {
		if got := Key(tt.filename); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	want := successRecord(3, "03_Kong_2023.pdf")
	if err := s.Save("03_Kong_2023", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("03_Kong_2023")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Citation != want.Citation || got.SourceNumber != want.SourceNumber {
		t.Errorf("got %+v", got)
	}
	if got.Sample.N == nil || *got.Sample.N != 100 {
		t.Errorf("Sample.N = %v", got.Sample.N)
	}
	entry := got.Evidence("RQ1")
	if !entry.HasEvidence || len(entry.SupportingQuotes) != 1 {
		t.Errorf("RQ1 entry = %+v", entry)
	}
}

func TestSaveFailureRecordRoundtrip(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	want := types.FailureRecord(2, "02_Broken_2021.pdf", "Failed to upload PDF: quota exceeded")
	if err := s.Save("02_Broken_2021", want); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("02_Broken_2021")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Failed() || got.Err != want.Err {
		t.Errorf("got %+v", got)
	}
}

func TestExists(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if s.Exists("01_A_2020") {
		t.Error("Exists true before Save")
	}
	if err := s.Save("01_A_2020", successRecord(1, "01_A_2020.pdf")); err != nil {
		t.Fatal(err)
	}
	if !s.Exists("01_A_2020") {
		t.Error("Exists false after Save")
	}
}

func TestLoadAllSorted(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Save out of order; LoadAll must sort by source number.
	for _, num := range []int{3, 1, 2} {
		filename := fmt.Sprintf("%02d_X_2020.pdf", num)
		if err := s.Save(Key(filename), successRecord(num, filename)); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	for i, want := range []int{1, 2, 3} {
		if records[i].SourceNumber != want {
			t.Errorf("records[%d].SourceNumber = %d, want %d", i, records[i].SourceNumber, want)
		}
	}
}

func TestLoadAllIgnoresNonJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewRecordStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("01_A_2020", successRecord(1, "01_A_2020.pdf")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := s.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestSaveEncodingStable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewRecordStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("01_A_2020", successRecord(1, "01_A_2020.pdf")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "01_A_2020.json"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, "\n  \"source_number\": 1") {
		t.Error("output not two-space indented")
	}
	// Non-ASCII and angle brackets must survive unescaped.
	if !strings.Contains(text, "café-goers") {
		t.Error("UTF-8 content mangled")
	}
	if !strings.Contains(text, "a < b") {
		t.Error("HTML escaping must be disabled")
	}
	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
