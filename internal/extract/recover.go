// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// payload is the JSON shape the extraction prompt requires from the model.
// Source number and filename are echoed back by the model but callers
// always override them with the locally known values.
type payload struct {
	SourceNumber int                            `json:"source_number"`
	Filename     string                         `json:"filename"`
	Citation     string                         `json:"citation"`
	Title        string                         `json:"title"`
	StudyType    string                         `json:"study_type"`
	Sample       types.Sample                   `json:"sample"`
	Extractions  map[string]types.EvidenceEntry `json:"extractions"`
}

// recoveryStrategy locates a JSON fragment inside raw model output that
// did not parse directly. Each strategy is independent and reports
// whether it found a candidate; the caller tries them in order.
type recoveryStrategy func(text string) (string, bool)

// recoveryStrategies is the ordered ladder applied after a direct parse
// failure: fenced code block first, then the outermost brace span.
var recoveryStrategies = []recoveryStrategy{fencedBlock, braceSpan}

// fencePattern matches a fenced code block, with or without a language
// tag, capturing its contents.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// fencedBlock returns the contents of the first fenced code block.
func fencedBlock(text string) (string, bool) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// braceSpan returns the span from the first '{' to the last '}'.
func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodePayload parses raw model output into a payload. It tries a direct
// parse first, then each recovery strategy against the same response
// text. Recovery is scoped strictly to the current attempt's response;
// on total failure the direct parse error is returned.
func decodePayload(text string) (*payload, error) {
	var p payload
	directErr := json.Unmarshal([]byte(text), &p)
	if directErr == nil {
		return &p, nil
	}

	for _, strategy := range recoveryStrategies {
		fragment, ok := strategy(text)
		if !ok {
			continue
		}
		var recovered payload
		if err := json.Unmarshal([]byte(fragment), &recovered); err == nil {
			return &recovered, nil
		}
	}

	return nil, fmt.Errorf("no parseable JSON in response: %w", directErr)
}
