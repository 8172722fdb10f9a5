// Package storage persists imported datasets as JSONL files, the source of
// truth, with an ephemeral SQLite index for subgraph queries.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/reelgraph/internal/dataset"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Record types of a dataset JSONL file.
const (
	RecordEntity   = "entity"
	RecordRelation = "relation"
)

// ErrNotFound is returned for unknown datasets and entities.
var ErrNotFound = errors.New("not found")

// record is one line of a dataset file.
type record struct {
	Type     string            `json:"type"`
	Entity   *dataset.Entity   `json:"entity,omitempty"`
	Relation *dataset.Relation `json:"relation,omitempty"`
}

// ReadDataset reads a dataset from a JSONL file. A missing file is
// ErrNotFound.
func ReadDataset(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	ds := &dataset.Dataset{}
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		switch {
		case rec.Type == RecordEntity && rec.Entity != nil:
			ds.Entities = append(ds.Entities, *rec.Entity)
		case rec.Type == RecordRelation && rec.Relation != nil:
			ds.Relations = append(ds.Relations, *rec.Relation)
		default:
			return nil, fmt.Errorf("parsing line %d: unknown record type %q", lineNum, rec.Type)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	return ds, nil
}

// WriteDataset writes a dataset to a JSONL file, replacing existing content.
// Entities come first, then relations, each in input order.
func WriteDataset(path string, ds *dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	write := func(rec record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}

	for i := range ds.Entities {
		if err := write(record{Type: RecordEntity, Entity: &ds.Entities[i]}); err != nil {
			return fmt.Errorf("writing entity %d: %w", i, err)
		}
	}
	for i := range ds.Relations {
		if err := write(record{Type: RecordRelation, Relation: &ds.Relations[i]}); err != nil {
			return fmt.Errorf("writing relation %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing dataset file: %w", err)
	}
	return nil
}
