// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

const dbFile = "review.db"

// Index is a SQLite evidence index over persisted extraction records.
// It makes the evidence base queryable after a run: per-question filters,
// direction filters, and FTS5 full-text search over answers and quotes.
type Index struct {
	db         *sql.DB
	maxResults int
}

// NewIndex opens or creates the evidence index at indexDir/review.db,
// creating the schema if it does not exist.
func NewIndex(cfg types.IndexConfig) (*Index, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	idx := &Index{db: db, maxResults: maxResults}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			number INTEGER PRIMARY KEY,
			filename TEXT,
			citation TEXT,
			title TEXT,
			study_type TEXT,
			sample_n INTEGER,
			age_range TEXT,
			population TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source_number INTEGER NOT NULL REFERENCES sources(number),
			question_id TEXT NOT NULL,
			has_evidence INTEGER NOT NULL,
			answer TEXT,
			effect_size TEXT,
			direction TEXT,
			quotes TEXT,
			UNIQUE(source_number, question_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_question ON evidence(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_source ON evidence(source_number)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source_key TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := x.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='evidence_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE evidence_fts USING fts5(answer, quotes, content=evidence, content_rowid=rowid)`,
			`CREATE TRIGGER evidence_ai AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(rowid, answer, quotes) VALUES (new.rowid, new.answer, new.quotes);
			END`,
			`CREATE TRIGGER evidence_ad AFTER DELETE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, answer, quotes) VALUES('delete', old.rowid, old.answer, old.quotes);
			END`,
			`CREATE TRIGGER evidence_au AFTER UPDATE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, answer, quotes) VALUES('delete', old.rowid, old.answer, old.quotes);
				INSERT INTO evidence_fts(rowid, answer, quotes) VALUES (new.rowid, new.answer, new.quotes);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := x.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an evidence index run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of record files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads every persisted record file from the store directory and
// populates the index. Unchanged files are skipped on subsequent runs;
// changed files replace their previous rows.
func (x *Index) Ingest(ctx context.Context, recordsDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(recordsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading records directory %s: %w", recordsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		key := strings.TrimSuffix(entry.Name(), ".json")

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = x.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE source_key = ?`, key,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", key)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(filepath.Join(recordsDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		var record types.Record
		if err := json.Unmarshal(data, &record); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", key, err)
			summary.Failed++
			continue
		}

		if err := x.ingestRecord(ctx, key, record, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d entries)\n", key, len(record.Extractions))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d entries)\n", key, len(record.Extractions))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (x *Index) ingestRecord(ctx context.Context, key string, r types.Record, modTime string, isUpdate bool) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM evidence WHERE source_number = ?`, r.SourceNumber); err != nil {
			return fmt.Errorf("deleting old evidence: %w", err)
		}
	}

	status := "success"
	if r.Failed() {
		status = "error"
	}

	var sampleN any
	if r.Sample.N != nil {
		sampleN = *r.Sample.N
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (number, filename, citation, title, study_type, sample_n, age_range, population, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET
			filename=excluded.filename, citation=excluded.citation, title=excluded.title,
			study_type=excluded.study_type, sample_n=excluded.sample_n,
			age_range=excluded.age_range, population=excluded.population,
			status=excluded.status, error=excluded.error`,
		r.SourceNumber, r.Filename, r.Citation, r.Title, r.StudyType,
		sampleN, r.Sample.AgeRange, r.Sample.Population, status, r.Err,
	)
	if err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO evidence (source_number, question_id, has_evidence, answer, effect_size, direction, quotes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for questionID, entry := range r.Extractions {
		quotesJSON, _ := json.Marshal(entry.SupportingQuotes)
		hasEvidence := 0
		if entry.HasEvidence {
			hasEvidence = 1
		}
		if _, err := stmt.ExecContext(ctx,
			r.SourceNumber, questionID, hasEvidence, entry.Answer,
			entry.EffectSize, string(entry.Direction), string(quotesJSON),
		); err != nil {
			return fmt.Errorf("inserting evidence %s/%s: %w", key, questionID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (source_key, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source_key) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		key, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// QueryOptions holds parameters for evidence index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over answers and quotes.
	Query string

	// QuestionID filters by research question.
	QuestionID string

	// Direction filters by effect direction.
	Direction types.Direction

	// HasEvidence filters by the evidence flag when non-nil.
	HasEvidence *bool

	// SourceNumber filters by source when positive.
	SourceNumber int

	// MaxResults limits result count. Zero uses the index default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.QuestionID == "" && q.Direction == "" &&
		q.HasEvidence == nil && q.SourceNumber == 0
}

// QueryResult is one evidence entry with source metadata attached.
type QueryResult struct {
	SourceNumber int             `json:"source_number"`
	Citation     string          `json:"citation"`
	Title        string          `json:"title"`
	QuestionID   string          `json:"question_id"`
	HasEvidence  bool            `json:"has_evidence"`
	Answer       string          `json:"answer"`
	EffectSize   string          `json:"effect_size,omitempty"`
	Direction    types.Direction `json:"direction,omitempty"`
	Quotes       []types.Quote   `json:"quotes,omitempty"`
}

// Retrieve queries the evidence index with optional full-text search and
// structured filters. Full-text queries are ranked by relevance; filter-only
// queries are ordered by source number and question id.
func (x *Index) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = x.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.source_number, s.citation, s.title, e.question_id,
				e.has_evidence, e.answer, e.effect_size, e.direction, e.quotes
			FROM evidence_fts
			JOIN evidence e ON e.rowid = evidence_fts.rowid
			LEFT JOIN sources s ON e.source_number = s.number
			WHERE evidence_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.source_number, s.citation, s.title, e.question_id,
				e.has_evidence, e.answer, e.effect_size, e.direction, e.quotes
			FROM evidence e
			LEFT JOIN sources s ON e.source_number = s.number
			WHERE 1=1`)
	}

	if opts.QuestionID != "" {
		qb.WriteString(` AND e.question_id = ?`)
		args = append(args, opts.QuestionID)
	}
	if opts.Direction != "" {
		qb.WriteString(` AND e.direction = ?`)
		args = append(args, string(opts.Direction))
	}
	if opts.HasEvidence != nil {
		qb.WriteString(` AND e.has_evidence = ?`)
		if *opts.HasEvidence {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if opts.SourceNumber > 0 {
		qb.WriteString(` AND e.source_number = ?`)
		args = append(args, opts.SourceNumber)
	}

	if useFTS {
		qb.WriteString(` ORDER BY evidence_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.source_number, e.question_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := x.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying evidence index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			hasEvidence int
			citation    sql.NullString
			title       sql.NullString
			answer      sql.NullString
			effectSize  sql.NullString
			direction   sql.NullString
			quotesJSON  sql.NullString
		)

		if err := rows.Scan(
			&qr.SourceNumber, &citation, &title, &qr.QuestionID,
			&hasEvidence, &answer, &effectSize, &direction, &quotesJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.HasEvidence = hasEvidence != 0
		qr.Citation = citation.String
		qr.Title = title.String
		qr.Answer = answer.String
		qr.EffectSize = effectSize.String
		qr.Direction = types.Direction(direction.String)
		if quotesJSON.Valid && quotesJSON.String != "" {
			json.Unmarshal([]byte(quotesJSON.String), &qr.Quotes)
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}
