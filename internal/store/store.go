// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction records and builds the evidence index.
// Records are written one JSON file per source, immediately after each
// extraction completes; the existence check on that file is the batch
// resumability primitive.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// RecordStore holds one JSON extraction record per source in a directory.
// The key for a source is the base name of its PDF without the extension,
// so re-runs find prior results without any separate checkpoint log.
type RecordStore struct {
	dir string
}

// NewRecordStore creates the records directory if needed.
func NewRecordStore(dir string) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}
	return &RecordStore{dir: dir}, nil
}

// Key derives the store key from a source's PDF filename.
func Key(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *RecordStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Exists reports whether a record is already persisted under key.
func (s *RecordStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Load reads one persisted record.
func (s *RecordStore) Load(key string) (types.Record, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return types.Record{}, fmt.Errorf("reading record %s: %w", key, err)
	}
	var r types.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return types.Record{}, fmt.Errorf("parsing record %s: %w", key, err)
	}
	return r, nil
}

// Save writes one record durably: encode, write to a temp file in the
// same directory, then rename over the final path. Records are written
// once and never mutated afterward.
func (s *RecordStore) Save(key string, r types.Record) error {
	data, err := encodeRecord(r)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".record-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing record %s: %w", key, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming record %s: %w", key, err)
	}
	return nil
}

// LoadAll reads every persisted record, ordered by ascending source number
// (ties broken by filename for stable output).
func (s *RecordStore) LoadAll() ([]types.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading records directory: %w", err)
	}

	var records []types.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].SourceNumber != records[j].SourceNumber {
			return records[i].SourceNumber < records[j].SourceNumber
		}
		return records[i].Filename < records[j].Filename
	})
	return records, nil
}

// encodeRecord produces the on-disk JSON: two-space indent, UTF-8 with
// non-ASCII preserved (no HTML escaping).
func encodeRecord(r types.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
