// Package dataset defines the entity and relation types consumed by the layout
// engine, along with decoding and normalization of incoming datasets.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes timeline anchors from free satellites.
type Kind int

const (
	// KindSatellite is an entity without an intrinsic temporal coordinate.
	KindSatellite Kind = iota
	// KindAnchor is an entity pinned to the timeline by its year.
	KindAnchor
)

// Validation errors.
var (
	ErrEmptyID     = errors.New("id is required")
	ErrUnknownKind = errors.New("unknown entity kind")
	ErrDuplicateID = errors.New("entity with this id already exists")
	ErrEmptyRole   = errors.New("relation role is required")
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAnchor:
		return "Anchor"
	case KindSatellite:
		return "Satellite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a wire name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anchor":
		return KindAnchor, nil
	case "satellite", "":
		return KindSatellite, nil
	default:
		return KindSatellite, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding kind: %w", err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entity is a node of the dataset.
type Entity struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`

	// Year is only meaningful for anchors. Nil means missing or non-numeric.
	Year *int `json:"year,omitempty"`

	// Centrality is only meaningful for satellites. Nil means absent.
	Centrality *float64 `json:"centrality,omitempty"`

	// Attributes carries the remaining fields of the source record so the
	// selection callback can hand back the full record.
	Attributes map[string]any `json:"attributes,omitempty"`
}

// IsAnchor reports whether the entity is a timeline anchor.
func (e *Entity) IsAnchor() bool {
	return e.Kind == KindAnchor
}

// HasYear reports whether the entity carries a usable year.
func (e *Entity) HasYear() bool {
	return e.Year != nil
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	out := e
	if e.Year != nil {
		y := *e.Year
		out.Year = &y
	}
	if e.Centrality != nil {
		c := *e.Centrality
		out.Centrality = &c
	}
	if e.Attributes != nil {
		out.Attributes = make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// Validate checks the fields required before an entity can be laid out.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if e.Kind != KindAnchor && e.Kind != KindSatellite {
		return ErrUnknownKind
	}
	return nil
}

// Relation links two entities by id.
type Relation struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Role     string `json:"role"`
}

// Key returns the identity tuple of the relation.
func (r Relation) Key() RelationKey {
	return RelationKey{SourceID: r.SourceID, TargetID: r.TargetID, Role: r.Role}
}

// RelationKey is the unique identity of a relation.
type RelationKey struct {
	SourceID string
	TargetID string
	Role     string
}

// Dataset is the plain {entities, relations} input of the engine.
type Dataset struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// IsEmpty returns true if the dataset has no entities.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Entities) == 0
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return &Dataset{}
	}
	out := &Dataset{
		Entities:  make([]Entity, len(d.Entities)),
		Relations: make([]Relation, len(d.Relations)),
	}
	for i, e := range d.Entities {
		out.Entities[i] = e.Clone()
	}
	copy(out.Relations, d.Relations)
	return out
}

// Anchors returns the number of anchor entities.
func (d *Dataset) Anchors() int {
	n := 0
	for i := range d.Entities {
		if d.Entities[i].IsAnchor() {
			n++
		}
	}
	return n
}
