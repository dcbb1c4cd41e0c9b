// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestParseCitations(t *testing.T) {
	text := `
Kong et al. (2023) - Screens and Sleep
Smith & Jones (2024) - Attention in the Digital Age

Lee (2022)
`
	sources := ParseCitations(text)

	if len(sources) != 3 {
		t.Fatalf("got %d sources", len(sources))
	}

	if sources[0].Number != 1 || sources[0].Citation != "Kong et al. (2023)" || sources[0].Title != "Screens and Sleep" {
		t.Errorf("sources[0] = %+v", sources[0])
	}
	if sources[0].RenamedFilename != "01_Kong_2023.pdf" {
		t.Errorf("RenamedFilename = %q", sources[0].RenamedFilename)
	}
	if sources[1].AuthorYear != "Smith_Jones_2024" {
		t.Errorf("sources[1].AuthorYear = %q", sources[1].AuthorYear)
	}
	// Line without " - " separator: whole line is the citation.
	if sources[2].Citation != "Lee (2022)" || sources[2].Title != "" {
		t.Errorf("sources[2] = %+v", sources[2])
	}
	if sources[2].RenamedFilename != "03_Lee_2022.pdf" {
		t.Errorf("sources[2].RenamedFilename = %q", sources[2].RenamedFilename)
	}
}

func TestParseCitationsEmpty(t *testing.T) {
	if got := ParseCitations("\n  \n"); got != nil {
		t.Errorf("ParseCitations on blanks = %v", got)
	}
}

func TestExtractAuthorYear(t *testing.T) {
	tests := []struct {
		citation string
		want     string
	}{
		{"Kong et al. (2023)", "Kong_2023"},
		{"Smith & Jones (2024)", "Smith_Jones_2024"},
		{"Lee (2022)", "Lee_2022"},
		{"O'Brien et al. (2021)", "OBrien_2021"},
		{"Kong et al. (2023). Journal of Sleep Research.", "Kong_2023"},
		{"No year here", "Noyearhere_XXXX"},
		{"(2020)", "Unknown_2020"},
		{"12345", "Unknown_XXXX"},
	}
	for _, tt := range tests {
		if got := extractAuthorYear(tt.citation); got != tt.want {
			t.Errorf("extractAuthorYear(%q) = %q, want %q", tt.citation, got, tt.want)
		}
	}
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review_request.yaml")
	content := `
project:
  name: Screens and Adolescents
  requester: Dr. Example
research_questions:
  - id: RQ1
    text: Does screen time affect sleep quality?
citations: |
  Kong et al. (2023) - Screens and Sleep
context:
  description: Screen time and adolescent wellbeing.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	req, err := LoadRequest(path)
	if err != nil {
		t.Fatalf("LoadRequest: %v", err)
	}
	if req.Project.Name != "Screens and Adolescents" {
		t.Errorf("Project.Name = %q", req.Project.Name)
	}
	if len(req.ResearchQuestions) != 1 || req.ResearchQuestions[0].ID != "RQ1" {
		t.Errorf("questions = %+v", req.ResearchQuestions)
	}
	if req.Context.Description == "" {
		t.Error("context not parsed")
	}
}

func TestLoadRequestRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()

	noQuestions := filepath.Join(dir, "noq.yaml")
	os.WriteFile(noQuestions, []byte("citations: |\n  A (2020) - T\n"), 0o644)
	if _, err := LoadRequest(noQuestions); err == nil {
		t.Error("expected error for missing questions")
	}

	noCitations := filepath.Join(dir, "noc.yaml")
	os.WriteFile(noCitations, []byte("research_questions:\n  - id: RQ1\n    text: Q?\n"), 0o644)
	if _, err := LoadRequest(noCitations); err == nil {
		t.Error("expected error for missing citations")
	}
}

func TestBuildProjectFile(t *testing.T) {
	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = orig })

	req := &Request{
		Project: types.Project{Name: "Review"},
		ResearchQuestions: []types.ResearchQuestion{
			{ID: "RQ1", Text: "Q?"},
		},
		Context: types.ContextRaw{Description: "desc"},
	}
	sources := []NumberedSource{
		{Number: 1, Citation: "Kong et al. (2023)", Title: "T", RenamedFilename: "01_Kong_2023.pdf"},
		{Number: 2, Citation: "Lee (2022)", RenamedFilename: "02_Lee_2022.pdf"},
	}

	pf := BuildProjectFile(req, sources)

	if pf.Project.Date != "2026-03-15" {
		t.Errorf("Date = %q, want filled from clock", pf.Project.Date)
	}
	if len(pf.Sources) != 2 || pf.Sources[1].Filename != "01_Kong_2023.pdf" {
		t.Errorf("Sources = %+v", pf.Sources)
	}
	if pf.ContextTranslated != "" {
		t.Error("ContextTranslated must stay empty until the frame stage")
	}
	if pf.Settings.ExtractionModel == "" || pf.Settings.Temperature == 0 {
		t.Errorf("Settings not defaulted: %+v", pf.Settings)
	}
	if err := pf.Validate(); err != nil {
		t.Errorf("built project must validate: %v", err)
	}
}

func TestBuildProjectFileKeepsExplicitDate(t *testing.T) {
	req := &Request{
		Project:           types.Project{Name: "Review", Date: "2025-01-01"},
		ResearchQuestions: []types.ResearchQuestion{{ID: "RQ1", Text: "Q?"}},
	}
	pf := BuildProjectFile(req, nil)
	if pf.Project.Date != "2025-01-01" {
		t.Errorf("Date = %q, explicit date must win", pf.Project.Date)
	}
}
