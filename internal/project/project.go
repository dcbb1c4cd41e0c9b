// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project loads and saves the review project configuration:
// numbered sources, research questions, and framing context. All pipeline
// stages after ingest read their inputs from this one file.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Settings carries model parameters recorded in the project file so a
// review run is reproducible from the file alone.
type Settings struct {
	ExtractionModel string  `yaml:"extraction_model"`
	FramingModel    string  `yaml:"framing_model"`
	Temperature     float32 `yaml:"temperature"`
	RequireQuotes   bool    `yaml:"require_quotes"`
}

// File is the on-disk project configuration (project.yaml).
type File struct {
	Project           types.Project            `yaml:"project"`
	ResearchQuestions []types.ResearchQuestion `yaml:"research_questions"`
	Sources           map[int]types.Source     `yaml:"sources"`
	ContextRaw        types.ContextRaw         `yaml:"context_raw"`

	// ContextTranslated is the neutral light framing paragraph. Empty
	// until the frame stage has run.
	ContextTranslated string `yaml:"context_translated"`

	Settings Settings `yaml:"settings"`
}

// Load reads and validates a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing project file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the project file, creating parent directories as needed.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling project file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the structural invariants the later stages rely on:
// at least one question, unique question ids, positive source numbers,
// and a filename on every source.
func (f *File) Validate() error {
	if len(f.ResearchQuestions) == 0 {
		return fmt.Errorf("no research questions defined")
	}
	seen := make(map[string]bool, len(f.ResearchQuestions))
	for i, rq := range f.ResearchQuestions {
		if rq.ID == "" {
			return fmt.Errorf("research question %d has no id", i+1)
		}
		if seen[rq.ID] {
			return fmt.Errorf("duplicate research question id %q", rq.ID)
		}
		seen[rq.ID] = true
		if rq.Text == "" {
			return fmt.Errorf("research question %s has no text", rq.ID)
		}
	}
	for num, src := range f.Sources {
		if num < 1 {
			return fmt.Errorf("source number %d: numbers start at 1", num)
		}
		if src.Filename == "" {
			return fmt.Errorf("source %d (%s): no filename", num, src.Citation)
		}
	}
	return nil
}

// SourceNumbers returns the source numbers in ascending order.
func (f *File) SourceNumbers() []int {
	nums := make([]int, 0, len(f.Sources))
	for n := range f.Sources {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// MaxSourceNumber returns the highest source number, or 0 when there are
// no sources.
func (f *File) MaxSourceNumber() int {
	max := 0
	for n := range f.Sources {
		if n > max {
			max = n
		}
	}
	return max
}
