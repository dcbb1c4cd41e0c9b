// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"
)

func TestDecodePayload(t *testing.T) {
	core := `{"citation": "Kong et al. (2023)", "extractions": {"RQ1": {"has_evidence": true, "answer": "yes", "supporting_quotes": []}}}`

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "direct JSON",
			text: core,
		},
		{
			name: "fenced with json tag",
			text: "```json\n" + core + "\n```",
		},
		{
			name: "fenced without tag",
			text: "```\n" + core + "\n```",
		},
		{
			name: "fence surrounded by prose",
			text: "Sure, here is the extraction you asked for:\n\n```json\n" + core + "\n```\n\nLet me know if you need anything else.",
		},
		{
			name: "bare JSON with leading prose",
			text: "Here is the result: " + core,
		},
		{
			name: "bare JSON with trailing prose",
			text: core + "\nI hope this helps!",
		},
		{
			name:    "no JSON at all",
			text:    "I could not process this document.",
			wantErr: true,
		},
		{
			name:    "braces but not parseable",
			text:    "the set {a, b, c} is unordered",
			wantErr: true,
		},
		{
			name:    "empty response",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decodePayload(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "no parseable JSON") {
					t.Errorf("err = %v, want wrapped parse failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodePayload: %v", err)
			}
			if p.Citation != "Kong et al. (2023)" {
				t.Errorf("Citation = %q", p.Citation)
			}
			if !p.Extractions["RQ1"].HasEvidence {
				t.Error("RQ1 entry lost in recovery")
			}
		})
	}
}

func TestBraceSpanOutermost(t *testing.T) {
	// Nested objects: the span must run from the first '{' to the last '}'.
	text := `prefix {"a": {"b": 1}} suffix`
	got, ok := braceSpan(text)
	if !ok {
		t.Fatal("braceSpan found nothing")
	}
	if got != `{"a": {"b": 1}}` {
		t.Errorf("braceSpan = %q", got)
	}
}

func TestFencedBlockFirstOnly(t *testing.T) {
	text := "```json\n{\"a\": 1}\n```\nand\n```json\n{\"b\": 2}\n```"
	got, ok := fencedBlock(text)
	if !ok {
		t.Fatal("fencedBlock found nothing")
	}
	if got != `{"a": 1}` {
		t.Errorf("fencedBlock = %q, want first block", got)
	}
}
