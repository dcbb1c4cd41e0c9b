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

// findingLimit caps the finding cell so matrix rows stay readable in a
// spreadsheet application.
const findingLimit = 500

// MatrixHeader returns the stable column set: the fixed source columns
// followed by one four-column block per question, in question-list order.
func MatrixHeader(questions []types.ResearchQuestion) []string {
	header := []string{
		"Source #", "Filename", "Citation", "Title", "Study Type",
		"Sample N", "Age Range", "Population", "Status", "Error",
	}
	for _, q := range questions {
		header = append(header,
			q.ID+" Evidence",
			q.ID+" Finding",
			q.ID+" Effect Size",
			q.ID+" Direction",
		)
	}
	return header
}

// MatrixRow renders one record into the column set. Failure rows carry
// only the source identity, status, and error; success rows populate the
// metadata columns and every question block.
func MatrixRow(r types.Record, questions []types.ResearchQuestion) []string {
	row := make([]string, 0, 10+4*len(questions))

	if r.Failed() {
		row = append(row,
			strconv.Itoa(r.SourceNumber), r.Filename,
			"", "", "", "", "", "",
			"Error", r.Err,
		)
		for range questions {
			row = append(row, "", "", "", "")
		}
		return row
	}

	sampleN := ""
	if r.Sample.N != nil {
		sampleN = strconv.Itoa(*r.Sample.N)
	}
	row = append(row,
		strconv.Itoa(r.SourceNumber), r.Filename,
		r.Citation, r.Title, r.StudyType,
		sampleN, r.Sample.AgeRange, r.Sample.Population,
		"Success", "",
	)

	for _, q := range questions {
		entry := r.Evidence(q.ID)
		flag := "N"
		if entry.HasEvidence {
			flag = "Y"
		}
		row = append(row,
			flag,
			truncate(entry.Answer, findingLimit),
			entry.EffectSize,
			string(entry.Direction),
		)
	}
	return row
}

// WriteMatrixCSV writes the evidence matrix, one row per record, to path.
// Given the same records and questions the output is byte-for-byte
// reproducible.
func WriteMatrixCSV(path string, records []types.Record, questions []types.ResearchQuestion) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating matrix file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(MatrixHeader(questions)); err != nil {
		f.Close()
		return fmt.Errorf("writing matrix header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(MatrixRow(r, questions)); err != nil {
			f.Close()
			return fmt.Errorf("writing matrix row for source %d: %w", r.SourceNumber, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing matrix: %w", err)
	}
	return f.Close()
}
