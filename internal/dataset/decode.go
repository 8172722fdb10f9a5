package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the input is not a JSON object.
var ErrMalformed = errors.New("dataset must be a JSON object")

// DecodeOptions controls how loosely-typed records are mapped onto entities.
type DecodeOptions struct {
	// AnchorKinds lists the kind/type names treated as anchors, such as
	// "Movie" in film graphs. "Anchor" is always accepted.
	AnchorKinds []string

	// CentralityFields lists record fields consulted for centrality, in
	// order of preference.
	CentralityFields []string
}

// DefaultDecodeOptions returns the options matching the upstream graph format.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		AnchorKinds:      []string{"Movie", "Anchor"},
		CentralityFields: []string{"centrality", "betweennessCentrality", "eigenvectorCentrality"},
	}
}

// reserved record fields that are not copied into Attributes.
var reservedEntityFields = map[string]bool{
	"id": true, "kind": true, "type": true, "label": true, "year": true,
}

// Decode reads a dataset in either the native {entities, relations} shape or
// the {nodes, links} graph shape. Only malformed JSON is an error; records
// that cannot be interpreted are skipped by the normalizer later.
func Decode(r io.Reader, opts DecodeOptions) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return DecodeBytes(data, opts)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, opts DecodeOptions) (*Dataset, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Dataset{}, nil
	}
	if data[0] != '{' {
		return nil, ErrMalformed
	}

	var top struct {
		Entities  []map[string]json.RawMessage `json:"entities"`
		Relations []map[string]json.RawMessage `json:"relations"`
		Nodes     []map[string]json.RawMessage `json:"nodes"`
		Links     []map[string]json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	records := top.Entities
	if len(records) == 0 {
		records = top.Nodes
	}
	links := top.Relations
	if len(links) == 0 {
		links = top.Links
	}

	ds := &Dataset{
		Entities:  make([]Entity, 0, len(records)),
		Relations: make([]Relation, 0, len(links)),
	}
	for _, rec := range records {
		ds.Entities = append(ds.Entities, decodeEntity(rec, opts))
	}
	for _, rec := range links {
		ds.Relations = append(ds.Relations, decodeRelation(rec))
	}
	return ds, nil
}

// DecodeEntity decodes a single entity record.
func DecodeEntity(data []byte, opts DecodeOptions) (Entity, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entity{}, fmt.Errorf("parsing entity: %w", err)
	}
	return decodeEntity(rec, opts), nil
}

// DecodeRelation decodes a single relation record.
func DecodeRelation(data []byte) (Relation, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(data, &rec); err != nil {
		return Relation{}, fmt.Errorf("parsing relation: %w", err)
	}
	return decodeRelation(rec), nil
}

func decodeEntity(rec map[string]json.RawMessage, opts DecodeOptions) Entity {
	e := Entity{
		ID: rawID(rec["id"]),
	}

	kindName := rawString(rec["kind"])
	if kindName == "" {
		kindName = rawString(rec["type"])
	}
	e.Kind = resolveKind(kindName, opts.AnchorKinds)

	e.Label = rawString(rec["label"])
	for _, alt := range []string{"name", "title"} {
		if e.Label != "" {
			break
		}
		e.Label = rawString(rec[alt])
	}
	if e.Label == "" {
		e.Label = e.ID
	}

	if e.Kind == KindAnchor {
		e.Year = rawYear(rec["year"])
	}

	for _, field := range opts.CentralityFields {
		if c, ok := rawFloat(rec[field]); ok {
			e.Centrality = &c
			break
		}
	}

	for k, raw := range rec {
		if reservedEntityFields[k] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if e.Attributes == nil {
			e.Attributes = make(map[string]any)
		}
		e.Attributes[k] = v
	}
	return e
}

func decodeRelation(rec map[string]json.RawMessage) Relation {
	r := Relation{
		SourceID: rawID(rec["sourceId"]),
		TargetID: rawID(rec["targetId"]),
		Role:     rawString(rec["role"]),
	}
	if r.SourceID == "" {
		r.SourceID = rawID(rec["source"])
	}
	if r.TargetID == "" {
		r.TargetID = rawID(rec["target"])
	}
	if r.Role == "" {
		r.Role = rawString(rec["label"])
	}
	if r.Role == "" {
		r.Role = rawString(rec["type"])
	}
	return r
}

func resolveKind(name string, anchorKinds []string) Kind {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "anchor") {
		return KindAnchor
	}
	for _, k := range anchorKinds {
		if strings.EqualFold(name, k) {
			return KindAnchor
		}
	}
	return KindSatellite
}

// rawID accepts strings, numbers, or an object carrying an "id" field.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		return rawID(obj.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func rawFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	if raw[0] == '"' {
		s := rawString(raw)
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// maxYear bounds the magnitude of a usable year. Larger values do not fit an
// int and would stretch the timeline to nothing anyway.
const maxYear = 1e6

// rawYear yields nil for anything that is not a finite number or numeric
// string within maxYear, so a bad year never reaches the layout.
func rawYear(raw json.RawMessage) *int {
	f, ok := rawFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxYear {
		return nil
	}
	y := int(math.Round(f))
	return &y
}
