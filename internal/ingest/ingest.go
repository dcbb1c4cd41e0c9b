// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest prepares a review run: it parses the structured request
// file, numbers the requested citations, matches PDFs in the inbox folder
// to sources, copies them under numbered names, and generates the project
// configuration. No generation API calls are made here.
package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Request is the structured review request (request.yaml) a requester
// submits together with their PDFs.
type Request struct {
	Project           types.Project            `yaml:"project"`
	ResearchQuestions []types.ResearchQuestion `yaml:"research_questions"`

	// Citations is the newline-separated source list, one per line in
	// "Citation - Title" form.
	Citations string `yaml:"citations"`

	Context types.ContextRaw `yaml:"context"`
}

// LoadRequest reads and validates a request file.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	if len(req.ResearchQuestions) == 0 {
		return nil, fmt.Errorf("request %s has no research questions", path)
	}
	if strings.TrimSpace(req.Citations) == "" {
		return nil, fmt.Errorf("request %s has no source citations", path)
	}
	return &req, nil
}

// NumberedSource is one requested source after numbering, before and
// after PDF matching.
type NumberedSource struct {
	Number     int
	Citation   string
	Title      string
	AuthorYear string

	// OriginalFilename is the matched PDF name in the inbox folder,
	// empty until matching succeeds.
	OriginalFilename string

	// RenamedFilename is the numbered name the PDF is copied to
	// (e.g. "03_Kong_2023.pdf").
	RenamedFilename string
}

// ParseCitations numbers the citation lines in order of appearance.
// Each line is split on " - " into citation and title; lines without a
// separator become a citation with an empty title.
func ParseCitations(text string) []NumberedSource {
	var sources []NumberedSource
	num := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		num++

		citation, title := line, ""
		if idx := strings.Index(line, " - "); idx >= 0 {
			citation = strings.TrimSpace(line[:idx])
			title = strings.TrimSpace(line[idx+3:])
		}

		authorYear := extractAuthorYear(citation)
		sources = append(sources, NumberedSource{
			Number:          num,
			Citation:        citation,
			Title:           title,
			AuthorYear:      authorYear,
			RenamedFilename: fmt.Sprintf("%02d_%s.pdf", num, authorYear),
		})
	}
	return sources
}

var (
	yearPattern      = regexp.MustCompile(`\((\d{4})\)`)
	yearSuffix       = regexp.MustCompile(`\s*\(\d{4}\).*`)
	etAlPattern      = regexp.MustCompile(`\s*et al\.?`)
	ampersandPattern = regexp.MustCompile(`\s*&\s*`)
	nonAuthorChars   = regexp.MustCompile(`[^a-zA-Z_]`)
)

// extractAuthorYear derives the filename stem from a citation:
// "Kong et al. (2023)" becomes "Kong_2023", "Smith & Jones (2024)"
// becomes "Smith_Jones_2024". An unparseable citation degrades to
// "Unknown_XXXX" rather than failing.
func extractAuthorYear(citation string) string {
	year := "XXXX"
	if m := yearPattern.FindStringSubmatch(citation); m != nil {
		year = m[1]
	}

	authors := yearSuffix.ReplaceAllString(citation, "")
	authors = etAlPattern.ReplaceAllString(authors, "")
	authors = ampersandPattern.ReplaceAllString(authors, "_")
	authors = nonAuthorChars.ReplaceAllString(authors, "")

	for strings.Contains(authors, "__") {
		authors = strings.ReplaceAll(authors, "__", "_")
	}
	authors = strings.Trim(authors, "_")
	if authors == "" {
		authors = "Unknown"
	}

	return authors + "_" + year
}

// nowFunc supplies the project date. Tests override this.
var nowFunc = time.Now

// BuildProjectFile assembles the project configuration from a parsed
// request and the numbered, matched sources. The translated framing is
// left empty for the frame stage.
func BuildProjectFile(req *Request, sources []NumberedSource) *project.File {
	cfgSources := make(map[int]types.Source, len(sources))
	for _, s := range sources {
		cfgSources[s.Number] = types.Source{
			Citation: s.Citation,
			Title:    s.Title,
			Filename: s.RenamedFilename,
		}
	}

	proj := req.Project
	if proj.Date == "" {
		proj.Date = nowFunc().Format("2006-01-02")
	}

	return &project.File{
		Project:           proj,
		ResearchQuestions: req.ResearchQuestions,
		Sources:           cfgSources,
		ContextRaw:        req.Context,
		Settings: project.Settings{
			ExtractionModel: "gemini-3-pro-preview",
			FramingModel:    "gemini-3-flash-preview",
			Temperature:     0.2,
			RequireQuotes:   true,
		},
	}
}
