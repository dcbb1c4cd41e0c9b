// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func writePDF(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		authorYear string
		pdfName    string
		want       int
	}{
		{"Kong_2023", "kong-2023-screens-sleep.pdf", 2},
		{"Kong_2023", "Kong et al 2023.pdf", 2},
		{"Kong_2023", "kong-preprint.pdf", 1},
		{"Kong_2023", "smith-2024.pdf", 0},
		{"Smith_Jones_2024", "smith_jones_2024_attention.pdf", 3},
		// Short parts (< 3 letters) and the XXXX placeholder never score.
		{"Li_XXXX", "li-xxxx.pdf", 0},
	}
	for _, tt := range tests {
		if got := matchScore(tt.authorYear, tt.pdfName); got != tt.want {
			t.Errorf("matchScore(%q, %q) = %d, want %d", tt.authorYear, tt.pdfName, got, tt.want)
		}
	}
}

func TestMatchPDFs(t *testing.T) {
	inbox := t.TempDir()
	writePDF(t, inbox, "kong-2023-screens.pdf")
	writePDF(t, inbox, "smith jones 2024 final.pdf")
	writePDF(t, inbox, "unrelated-paper.pdf")

	sources := []NumberedSource{
		{Number: 1, AuthorYear: "Kong_2023"},
		{Number: 2, AuthorYear: "Smith_Jones_2024"},
		{Number: 3, AuthorYear: "Park_2021"},
	}

	matched, leftover, err := MatchPDFs(sources, inbox)
	if err != nil {
		t.Fatalf("MatchPDFs: %v", err)
	}

	if matched[0].OriginalFilename != "kong-2023-screens.pdf" {
		t.Errorf("source 1 matched %q", matched[0].OriginalFilename)
	}
	if matched[1].OriginalFilename != "smith jones 2024 final.pdf" {
		t.Errorf("source 2 matched %q", matched[1].OriginalFilename)
	}
	if matched[2].OriginalFilename != "" {
		t.Errorf("source 3 matched %q, want no match", matched[2].OriginalFilename)
	}
	if len(leftover) != 1 || leftover[0] != "unrelated-paper.pdf" {
		t.Errorf("leftover = %v", leftover)
	}
}

func TestMatchPDFsAssignsEachPDFOnce(t *testing.T) {
	inbox := t.TempDir()
	writePDF(t, inbox, "kong-2023.pdf")

	sources := []NumberedSource{
		{Number: 1, AuthorYear: "Kong_2023"},
		{Number: 2, AuthorYear: "Kong_2023"},
	}

	matched, leftover, err := MatchPDFs(sources, inbox)
	if err != nil {
		t.Fatal(err)
	}
	if matched[0].OriginalFilename != "kong-2023.pdf" {
		t.Errorf("source 1 matched %q", matched[0].OriginalFilename)
	}
	if matched[1].OriginalFilename != "" {
		t.Error("one PDF must not satisfy two sources")
	}
	if len(leftover) != 0 {
		t.Errorf("leftover = %v", leftover)
	}
}

func TestMatchPDFsMissingInbox(t *testing.T) {
	sources := []NumberedSource{{Number: 1, AuthorYear: "Kong_2023"}}
	matched, leftover, err := MatchPDFs(sources, filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing inbox must not be an error: %v", err)
	}
	if matched[0].OriginalFilename != "" || leftover != nil {
		t.Errorf("matched = %+v, leftover = %v", matched, leftover)
	}
}

func TestShortCitation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kong et al. (2023)", "Kong et al. (2023)"},
		{strings.Repeat("x", 40), strings.Repeat("x", 40)},
		{strings.Repeat("x", 45), strings.Repeat("x", 40) + "..."},
		// Accented names truncate on rune boundaries, not bytes.
		{strings.Repeat("é", 45), strings.Repeat("é", 40) + "..."},
	}
	for _, tt := range tests {
		got := shortCitation(tt.in)
		if got != tt.want {
			t.Errorf("shortCitation(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("shortCitation(%q) produced invalid UTF-8", tt.in)
		}
	}
}

func TestCopyRenamed(t *testing.T) {
	inbox := t.TempDir()
	papers := filepath.Join(t.TempDir(), "papers")
	writePDF(t, inbox, "kong-2023.pdf")

	sources := []NumberedSource{
		{Number: 1, Citation: "Kong et al. (2023)", OriginalFilename: "kong-2023.pdf", RenamedFilename: "01_Kong_2023.pdf"},
		{Number: 2, Citation: "Lee (2022)"},
	}

	var out strings.Builder
	if err := CopyRenamed(sources, inbox, papers, &out); err != nil {
		t.Fatalf("CopyRenamed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(papers, "01_Kong_2023.pdf"))
	if err != nil {
		t.Fatalf("renamed copy missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("copied content mangled")
	}

	if !strings.Contains(out.String(), "kong-2023.pdf -> 01_Kong_2023.pdf") {
		t.Errorf("missing copy line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "[SKIPPED] no matching PDF for: Lee (2022)") {
		t.Errorf("missing skip line:\n%s", out.String())
	}
}
