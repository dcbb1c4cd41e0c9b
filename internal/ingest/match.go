// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var digitYear = regexp.MustCompile(`\d{4}`)

// MatchPDFs pairs inbox PDFs with sources by fuzzy-matching author name
// parts and the publication year against each file name. Every PDF is
// assigned to at most one source; the unmatched PDF names are returned
// so the operator can resolve them by hand.
func MatchPDFs(sources []NumberedSource, inboxDir string) ([]NumberedSource, []string, error) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return sources, nil, nil
		}
		return nil, nil, fmt.Errorf("reading inbox directory %s: %w", inboxDir, err)
	}

	var unmatched []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		unmatched = append(unmatched, entry.Name())
	}

	for i := range sources {
		best, bestScore := -1, 0
		for j, name := range unmatched {
			score := matchScore(sources[i].AuthorYear, name)
			if score > bestScore {
				best, bestScore = j, score
			}
		}
		if best >= 0 {
			sources[i].OriginalFilename = unmatched[best]
			unmatched = append(unmatched[:best], unmatched[best+1:]...)
		}
	}

	return sources, unmatched, nil
}

// matchScore counts how many meaningful author-name parts (3+ letters)
// appear in the PDF file name, plus one for a matching year.
func matchScore(authorYear, pdfName string) int {
	stem := strings.ToLower(strings.TrimSuffix(pdfName, filepath.Ext(pdfName)))

	score := 0
	for _, part := range strings.Split(strings.ToLower(authorYear), "_") {
		if len(part) >= 3 && part != "xxxx" && !digitYear.MatchString(part) && strings.Contains(stem, part) {
			score++
		}
	}

	if year := digitYear.FindString(authorYear); year != "" && strings.Contains(stem, year) {
		score++
	}
	return score
}

// shortCitation caps a citation for one-line messages, truncating on
// rune boundaries so accented author names are not split mid-character.
func shortCitation(citation string) string {
	runes := []rune(citation)
	if len(runes) <= 40 {
		return citation
	}
	return string(runes[:40]) + "..."
}

// CopyRenamed copies each matched PDF from the inbox into papersDir
// under its numbered name, reporting per-source status. Sources without
// a match are skipped, not errors: the operator resolves them manually
// and re-runs ingest.
func CopyRenamed(sources []NumberedSource, inboxDir, papersDir string, w io.Writer) error {
	if err := os.MkdirAll(papersDir, 0o755); err != nil {
		return fmt.Errorf("creating papers directory: %w", err)
	}

	for _, s := range sources {
		if s.OriginalFilename == "" {
			fmt.Fprintf(w, "  %2d. [SKIPPED] no matching PDF for: %s\n", s.Number, shortCitation(s.Citation))
			continue
		}

		src := filepath.Join(inboxDir, s.OriginalFilename)
		dst := filepath.Join(papersDir, s.RenamedFilename)
		if err := copyFile(src, dst); err != nil {
			fmt.Fprintf(w, "  %2d. [WARNING] %v\n", s.Number, err)
			continue
		}
		fmt.Fprintf(w, "  %2d. %s -> %s\n", s.Number, s.OriginalFilename, s.RenamedFilename)
	}
	return nil
}

// copyFile copies via a temp file in the destination directory, renaming
// on success so a partial copy never shadows a good file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".ingest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying %s: %w", src, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
