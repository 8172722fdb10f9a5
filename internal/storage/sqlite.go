package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/reelgraph/internal/dataset"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectEntityFields contains the standard field list for entity SELECT queries.
const selectEntityFields = `id, kind, label, year, centrality, attributes_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS datasets (
			name TEXT PRIMARY KEY,
			entity_count INTEGER NOT NULL,
			relation_count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entities (
			dataset TEXT NOT NULL,
			seq INTEGER NOT NULL,
			id TEXT NOT NULL,
			kind TEXT NOT NULL,
			label TEXT,
			year INTEGER,
			centrality REAL,
			attributes_json TEXT,
			PRIMARY KEY (dataset, id)
		);

		-- Year range queries over anchors
		CREATE INDEX IF NOT EXISTS idx_entities_year ON entities(dataset, year) WHERE year IS NOT NULL;

		CREATE TABLE IF NOT EXISTS relations (
			dataset TEXT NOT NULL,
			seq INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			role TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(dataset, source_id);
		CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(dataset, target_id);
	`

	_, err := db.Exec(schema)
	return err
}

// ImportResult summarizes an import.
type ImportResult struct {
	Dataset   string `json:"dataset"`
	Entities  int    `json:"entities"`
	Relations int    `json:"relations"`
	Skipped   int    `json:"skipped"`
}

// Import replaces the named dataset in the index. Entities with a duplicate
// or empty id are skipped; the first occurrence wins.
func (d *DB) Import(name string, ds *dataset.Dataset) (ImportResult, error) {
	result := ImportResult{Dataset: name}
	tx, err := d.db.Begin()
	if err != nil {
		return result, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDataset(tx, name); err != nil {
		return result, err
	}

	entStmt, err := tx.Prepare(`
		INSERT INTO entities (dataset, seq, id, kind, label, year, centrality, attributes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return result, fmt.Errorf("preparing entity insert: %w", err)
	}
	defer entStmt.Close()

	relStmt, err := tx.Prepare(`
		INSERT INTO relations (dataset, seq, source_id, target_id, role)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return result, fmt.Errorf("preparing relation insert: %w", err)
	}
	defer relStmt.Close()

	seen := make(map[string]bool, len(ds.Entities))
	for i, ent := range ds.Entities {
		if ent.Validate() != nil || seen[ent.ID] {
			result.Skipped++
			continue
		}
		seen[ent.ID] = true

		var attrs sql.NullString
		if len(ent.Attributes) > 0 {
			data, err := json.Marshal(ent.Attributes)
			if err != nil {
				return result, fmt.Errorf("marshaling attributes for %s: %w", ent.ID, err)
			}
			attrs = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := entStmt.Exec(name, i, ent.ID, ent.Kind.String(), ent.Label,
			nullableInt(ent.Year), nullableFloat(ent.Centrality), attrs); err != nil {
			return result, fmt.Errorf("inserting entity %s: %w", ent.ID, err)
		}
		result.Entities++
	}

	for i, rel := range ds.Relations {
		if _, err := relStmt.Exec(name, i, rel.SourceID, rel.TargetID, rel.Role); err != nil {
			return result, fmt.Errorf("inserting relation %d: %w", i, err)
		}
		result.Relations++
	}

	if _, err := tx.Exec(`INSERT INTO datasets (name, entity_count, relation_count) VALUES (?, ?, ?)`,
		name, result.Entities, result.Relations); err != nil {
		return result, fmt.Errorf("inserting dataset %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("committing import: %w", err)
	}
	return result, nil
}

// Remove deletes the named dataset from the index.
func (d *DB) Remove(name string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning remove: %w", err)
	}
	defer tx.Rollback()
	if err := deleteDataset(tx, name); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteDataset(tx *sql.Tx, name string) error {
	for _, table := range []string{"entities", "relations"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE dataset = ?", name); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM datasets WHERE name = ?", name); err != nil {
		return fmt.Errorf("clearing datasets: %w", err)
	}
	return nil
}

// DatasetInfo describes one indexed dataset.
type DatasetInfo struct {
	Name      string `json:"name"`
	Entities  int    `json:"entities"`
	Relations int    `json:"relations"`
}

// ListDatasets returns the indexed datasets ordered by name.
func (d *DB) ListDatasets() ([]DatasetInfo, error) {
	rows, err := d.db.Query(`SELECT name, entity_count, relation_count FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		if err := rows.Scan(&info.Name, &info.Entities, &info.Relations); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Count returns the number of entities in the named dataset.
func (d *DB) Count(name string) (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entities WHERE dataset = ?", name).Scan(&count)
	return count, err
}

// hasDataset reports whether name is indexed.
func (d *DB) hasDataset(name string) (bool, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM datasets WHERE name = ?", name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Query selects a subgraph of an indexed dataset.
//
// YearFrom and YearTo bound anchor years (0 = unbounded). When set, the
// result holds the anchors in range, every satellite related to one of them,
// and the relations among the selected entities. Entity restricts the seed
// set to that entity and its direct neighbours before the year bound applies
// to anchors.
type Query struct {
	Dataset  string
	YearFrom int
	YearTo   int
	Entity   string
}

// Query returns the subgraph matching q in original dataset order.
func (d *DB) Query(q Query) (*dataset.Dataset, error) {
	ok, err := d.hasDataset(q.Dataset)
	if err != nil {
		return nil, fmt.Errorf("looking up dataset: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, q.Dataset)
	}

	all, err := d.entities(q.Dataset)
	if err != nil {
		return nil, err
	}
	rels, err := d.relations(q.Dataset)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(all))
	for i, e := range all {
		byID[e.ID] = i
	}

	candidate := func(string) bool { return true }
	if q.Entity != "" {
		if _, ok := byID[q.Entity]; !ok {
			return nil, fmt.Errorf("%w: entity %q", ErrNotFound, q.Entity)
		}
		hood := map[string]bool{q.Entity: true}
		for _, r := range rels {
			if r.SourceID == q.Entity {
				hood[r.TargetID] = true
			}
			if r.TargetID == q.Entity {
				hood[r.SourceID] = true
			}
		}
		candidate = func(id string) bool { return hood[id] }
	}

	inRange := func(e *dataset.Entity) bool {
		if !e.IsAnchor() {
			return true
		}
		if q.YearFrom == 0 && q.YearTo == 0 {
			return true
		}
		if e.Year == nil {
			return false
		}
		return (q.YearFrom == 0 || *e.Year >= q.YearFrom) && (q.YearTo == 0 || *e.Year <= q.YearTo)
	}

	keep := make(map[string]bool)
	for i := range all {
		e := &all[i]
		if e.IsAnchor() && candidate(e.ID) && inRange(e) {
			keep[e.ID] = true
		}
	}
	// Satellites join through a kept anchor. Without a year bound every
	// candidate is kept.
	yearBound := q.YearFrom != 0 || q.YearTo != 0
	for _, r := range rels {
		for _, pair := range [][2]string{{r.SourceID, r.TargetID}, {r.TargetID, r.SourceID}} {
			sat, anchor := pair[0], pair[1]
			si, ok := byID[sat]
			if !ok || all[si].IsAnchor() || !candidate(sat) {
				continue
			}
			if keep[anchor] {
				keep[sat] = true
			}
		}
	}
	if !yearBound {
		for i := range all {
			if candidate(all[i].ID) {
				keep[all[i].ID] = true
			}
		}
	}

	out := &dataset.Dataset{}
	for _, e := range all {
		if keep[e.ID] {
			out.Entities = append(out.Entities, e)
		}
	}
	for _, r := range rels {
		if keep[r.SourceID] && keep[r.TargetID] {
			out.Relations = append(out.Relations, r)
		}
	}
	return out, nil
}

// GetEntity retrieves one entity by id.
func (d *DB) GetEntity(name, id string) (*dataset.Entity, error) {
	row := d.db.QueryRow(`SELECT `+selectEntityFields+` FROM entities WHERE dataset = ? AND id = ?`, name, id)
	ent, err := scanEntity(row)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, fmt.Errorf("%w: entity %q", ErrNotFound, id)
	}
	return ent, nil
}

// Years returns the distinct anchor years of the named dataset, ascending.
func (d *DB) Years(name string) ([]int, error) {
	rows, err := d.db.Query(`SELECT DISTINCT year FROM entities WHERE dataset = ? AND year IS NOT NULL ORDER BY year`, name)
	if err != nil {
		return nil, fmt.Errorf("listing years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func (d *DB) entities(name string) ([]dataset.Entity, error) {
	rows, err := d.db.Query(`SELECT `+selectEntityFields+` FROM entities WHERE dataset = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var out []dataset.Entity
	for rows.Next() {
		ent, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		if ent != nil {
			out = append(out, *ent)
		}
	}
	return out, rows.Err()
}

func (d *DB) relations(name string) ([]dataset.Relation, error) {
	rows, err := d.db.Query(`SELECT source_id, target_id, role FROM relations WHERE dataset = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	var out []dataset.Relation
	for rows.Next() {
		var r dataset.Relation
		if err := rows.Scan(&r.SourceID, &r.TargetID, &r.Role); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(s scanner) (*dataset.Entity, error) {
	var ent dataset.Entity
	var kind string
	var label, attrs sql.NullString
	var year sql.NullInt64
	var centrality sql.NullFloat64

	err := s.Scan(&ent.ID, &kind, &label, &year, &centrality, &attrs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if ent.Kind, err = dataset.ParseKind(kind); err != nil {
		return nil, fmt.Errorf("parsing kind for %s: %w", ent.ID, err)
	}
	ent.Label = label.String
	if year.Valid {
		y := int(year.Int64)
		ent.Year = &y
	}
	if centrality.Valid {
		c := centrality.Float64
		ent.Centrality = &c
	}
	if attrs.Valid && strings.TrimSpace(attrs.String) != "" {
		if err := json.Unmarshal([]byte(attrs.String), &ent.Attributes); err != nil {
			return nil, fmt.Errorf("parsing attributes JSON for %s: %w", ent.ID, err)
		}
	}
	return &ent, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
