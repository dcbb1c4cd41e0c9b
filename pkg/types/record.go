// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Direction classifies the direction of a reported effect for one
// research question.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionMixed    Direction = "mixed"
)

// Quote is a verbatim passage from a source document supporting an
// evidence entry, with a location reference (page number or section).
type Quote struct {
	Quote    string `json:"quote" yaml:"quote"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// EvidenceEntry is the per-source, per-question structured finding.
type EvidenceEntry struct {
	// HasEvidence reports whether the source addresses the question at all.
	HasEvidence bool `json:"has_evidence" yaml:"has_evidence"`

	// Answer summarizes the finding, or carries the fixed no-evidence
	// placeholder when HasEvidence is false.
	Answer string `json:"answer" yaml:"answer"`

	// SupportingQuotes are verbatim quotes backing the answer.
	SupportingQuotes []Quote `json:"supporting_quotes" yaml:"supporting_quotes"`

	// EffectSize is the effect size exactly as reported (e.g. "d = 0.42"),
	// empty when not reported.
	EffectSize string `json:"effect_size,omitempty" yaml:"effect_size,omitempty"`

	// Direction is positive, negative, mixed, or empty when not applicable.
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// Sample describes the study sample of a source.
type Sample struct {
	N          *int   `json:"n" yaml:"n"`
	AgeRange   string `json:"age_range,omitempty" yaml:"age_range,omitempty"`
	Population string `json:"population,omitempty" yaml:"population,omitempty"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Record is the persisted outcome of extracting one source document.
// It is a tagged union of a success and a failure shape: exactly one of
// the two holds. On success Err is empty and Extractions carries one
// EvidenceEntry per research question; on failure Err carries the terminal
// error message and Extractions is empty. Use Failed to branch; never
// read success fields from a failed record.
type Record struct {
	SourceNumber int    `json:"source_number" yaml:"source_number"`
	Filename     string `json:"filename" yaml:"filename"`

	// Err is the terminal failure message. Empty on success.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`

	Citation  string `json:"citation,omitempty" yaml:"citation,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	StudyType string `json:"study_type,omitempty" yaml:"study_type,omitempty"`
	Sample    Sample `json:"sample,omitempty" yaml:"sample,omitempty"`

	// Extractions maps research question id to the finding for that question.
	Extractions map[string]EvidenceEntry `json:"extractions" yaml:"extractions"`
}

// Failed reports whether the record is the failure variant.
func (r Record) Failed() bool {
	return r.Err != ""
}

// Evidence returns the entry for a question id. A missing id degrades to
// a zero entry (no evidence) rather than failing: persisted records from
// older runs may predate a question.
func (r Record) Evidence(questionID string) EvidenceEntry {
	return r.Extractions[questionID]
}

// EvidenceCount returns the number of questions with evidence.
func (r Record) EvidenceCount() int {
	n := 0
	for _, e := range r.Extractions {
		if e.HasEvidence {
			n++
		}
	}
	return n
}

// FailureRecord builds the failure variant for a source.
func FailureRecord(sourceNumber int, filename, errMsg string) Record {
	return Record{
		SourceNumber: sourceNumber,
		Filename:     filename,
		Err:          errMsg,
		Extractions:  map[string]EvidenceEntry{},
	}
}
