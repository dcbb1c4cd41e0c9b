// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	minPDFSize = 1024
	maxPDFSize = 100 * 1024 * 1024
)

var pdfMagic = []byte("%PDF-")

// ValidatePDF checks that path names a readable, plausible PDF: extension,
// size bounds, the %PDF- header, and a parseable structure with at least
// one page.
func ValidatePDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s", path)
	}
	if info.Size() < minPDFSize {
		return fmt.Errorf("file too small (may be empty): %s", path)
	}
	if info.Size() > maxPDFSize {
		return fmt.Errorf("file too large (>100MB): %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	header := make([]byte, len(pdfMagic))
	_, readErr := f.Read(header)
	f.Close()
	if readErr != nil {
		return fmt.Errorf("reading %s: %w", path, readErr)
	}
	if !bytes.Equal(header, pdfMagic) {
		return fmt.Errorf("invalid PDF header: %s", path)
	}

	return checkStructure(path)
}

// checkStructure parses the PDF and confirms at least one page. The pdf
// library panics on some malformed cross-reference tables, so the parse
// is isolated behind a recover.
func checkStructure(path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF structure: %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("parsing PDF %s: %w", path, err)
	}
	defer f.Close()

	if reader.NumPage() < 1 {
		return fmt.Errorf("PDF has no pages: %s", path)
	}
	return nil
}

// ValidateSetup checks that every source has a matched, valid PDF and
// returns one message per problem for the operator.
func ValidateSetup(sources []NumberedSource, inboxDir string) []string {
	var problems []string
	for _, s := range sources {
		if s.OriginalFilename == "" {
			problems = append(problems, fmt.Sprintf("source %d (%s): no matching PDF found", s.Number, shortCitation(s.Citation)))
			continue
		}
		if err := ValidatePDF(filepath.Join(inboxDir, s.OriginalFilename)); err != nil {
			problems = append(problems, fmt.Sprintf("source %d: %v", s.Number, err))
		}
	}
	return problems
}
