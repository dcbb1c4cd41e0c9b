package types

import "time"

// AIConfig holds shared settings for stages that call the generation API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-3-pro-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxAttempts is the number of generation attempts per source (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// IngestConfig holds settings for the ingest stage.
type IngestConfig struct {
	// RequestFile is the path to the structured review request (YAML).
	RequestFile string `json:"request_file" yaml:"request_file"`

	// InboxDir is the folder holding the requester's PDFs under their
	// original names.
	InboxDir string `json:"inbox_dir" yaml:"inbox_dir"`

	// PapersDir receives the numbered, renamed PDF copies.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// ProjectFile is where the generated project configuration is written.
	ProjectFile string `json:"project_file" yaml:"project_file"`
}

// FramingConfig holds settings for the framing translation stage.
type FramingConfig struct {
	AIConfig `yaml:",inline"`

	// MaxOutputTokens bounds the framing response length (default 500).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// ExtractionConfig holds settings for the evidence extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// Temperature is the sampling temperature for extraction (default 0.2).
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// PapersDir is the folder containing the numbered PDFs.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// RecordsDir receives one JSON extraction record per source.
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// SourceDelay is the pause between consecutive extractions, applied
	// only after a source that actually called the API (default 1s).
	SourceDelay time.Duration `json:"source_delay" yaml:"source_delay"`
}

// AggregationConfig holds settings for the aggregation stage.
type AggregationConfig struct {
	// RecordsDir is the folder of persisted extraction records.
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// OutputDir receives the matrix, narrative, and quotes artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// IndexConfig holds settings for the evidence index stage.
type IndexConfig struct {
	// RecordsDir is the folder of persisted extraction records.
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// IndexDir is the folder holding the SQLite evidence index.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Ingest      IngestConfig      `json:"ingest" yaml:"ingest"`
	Framing     FramingConfig     `json:"framing" yaml:"framing"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction"`
	Aggregation AggregationConfig `json:"aggregation" yaml:"aggregation"`
	Index       IndexConfig       `json:"index" yaml:"index"`
}
