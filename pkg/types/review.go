// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ResearchQuestion is one of the fixed analytical questions every source
// is evaluated against. Immutable once loaded from the project file.
type ResearchQuestion struct {
	// ID is the stable identifier used to key extractions (e.g. "RQ1").
	ID string `json:"id" yaml:"id"`

	// Text is the full question text.
	Text string `json:"text" yaml:"text"`

	// Keywords guide the extraction model toward relevant passages.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Source is one requested document, identified by a stable integer number.
// Numbers are unique within a run but need not be contiguous.
type Source struct {
	Citation string `json:"citation" yaml:"citation"`
	Title    string `json:"title" yaml:"title"`

	// Filename is the on-disk name of the PDF to extract from
	// (e.g. "03_Kong_2023.pdf").
	Filename string `json:"filename" yaml:"filename"`
}

// Project holds review-level metadata from the request.
type Project struct {
	Name        string `json:"name" yaml:"name"`
	Requester   string `json:"requester" yaml:"requester"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Date        string `json:"date" yaml:"date"`
}

// ContextRaw is the requester's plain-language framing input, before
// translation into the neutral light framing paragraph.
type ContextRaw struct {
	Description string `json:"description" yaml:"description"`
	Population  string `json:"population" yaml:"population"`
	Constructs  string `json:"constructs" yaml:"constructs"`
	Focus       string `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// Coverage holds evidence coverage for one research question.
type Coverage struct {
	// WithEvidence counts non-error records with evidence for the question.
	WithEvidence int `json:"with_evidence" yaml:"with_evidence"`

	// Total counts all non-error records.
	Total int `json:"total" yaml:"total"`

	// Percentage is WithEvidence over Total as a percentage, 0 when
	// Total is 0.
	Percentage float64 `json:"percentage" yaml:"percentage"`
}
