package dataset

import (
	"math"
	"strings"
)

// DefaultDirectingRoles lists the relation roles that mark a directing source.
var DefaultDirectingRoles = []string{"DIRECTED"}

// NormalizeOptions controls normalization.
type NormalizeOptions struct {
	DirectingRoles []string
}

// ResolvedRelation is a relation whose endpoints were found in the entity index.
type ResolvedRelation struct {
	Relation
	Source int // index into Graph.Entities
	Target int // index into Graph.Entities
}

// DirectorSet holds the ids that appear as the source of a directing relation.
type DirectorSet map[string]struct{}

// Has reports whether id is in the set.
func (s DirectorSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the set size.
func (s DirectorSet) Len() int {
	return len(s)
}

// Graph is a validated dataset ready for the solver.
type Graph struct {
	Entities  []Entity
	Relations []ResolvedRelation
	Directors DirectorSet

	index map[string]int
}

// Lookup returns the index of the entity with the given id.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Entity returns the entity with the given id.
func (g *Graph) Entity(id string) (Entity, bool) {
	i, ok := g.index[id]
	if !ok {
		return Entity{}, false
	}
	return g.Entities[i], true
}

// IsEmpty returns true if the graph has no entities.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Entities) == 0
}

// Years returns the years of anchors that carry one.
func (g *Graph) Years() []int {
	var years []int
	for i := range g.Entities {
		e := &g.Entities[i]
		if e.IsAnchor() && e.HasYear() {
			years = append(years, *e.Year)
		}
	}
	return years
}

// DroppedRelation describes a relation excluded from the graph.
type DroppedRelation struct {
	Relation
	Reason string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// DroppedEntity describes an entity excluded from the graph.
type DroppedEntity struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report lists the local recoveries made during normalization.
type Report struct {
	DroppedEntities  []DroppedEntity   `json:"dropped_entities,omitempty"`
	DroppedRelations []DroppedRelation `json:"dropped_relations,omitempty"`
	MissingYears     []string          `json:"missing_years,omitempty"` // anchor ids without a usable year
}

// Clean reports whether normalization made no recoveries.
func (r Report) Clean() bool {
	return len(r.DroppedEntities) == 0 && len(r.DroppedRelations) == 0 && len(r.MissingYears) == 0
}

// Normalize validates entities, resolves relation endpoints, and derives the
// director set. The input dataset is not modified. Unresolved relations and
// invalid or duplicate entities are dropped and reported, never fatal.
func Normalize(ds *Dataset, opts NormalizeOptions) (*Graph, Report) {
	var report Report
	g := &Graph{
		Directors: make(DirectorSet),
		index:     make(map[string]int),
	}
	if ds == nil {
		return g, report
	}

	g.Entities = make([]Entity, 0, len(ds.Entities))
	for _, e := range ds.Entities {
		if err := e.Validate(); err != nil {
			report.DroppedEntities = append(report.DroppedEntities, DroppedEntity{ID: e.ID, Reason: err.Error()})
			continue
		}
		if _, dup := g.index[e.ID]; dup {
			report.DroppedEntities = append(report.DroppedEntities, DroppedEntity{ID: e.ID, Reason: ErrDuplicateID.Error()})
			continue
		}
		g.index[e.ID] = len(g.Entities)
		g.Entities = append(g.Entities, e.Clone())
		if e.IsAnchor() && !e.HasYear() {
			report.MissingYears = append(report.MissingYears, e.ID)
		}
	}

	roles := opts.DirectingRoles
	if len(roles) == 0 {
		roles = DefaultDirectingRoles
	}

	for _, r := range ds.Relations {
		src, srcOK := g.index[r.SourceID]
		tgt, tgtOK := g.index[r.TargetID]
		if !srcOK || !tgtOK {
			report.DroppedRelations = append(report.DroppedRelations, DroppedRelation{
				Relation: r,
				Reason:   missingReason(srcOK, tgtOK),
			})
			continue
		}
		g.Relations = append(g.Relations, ResolvedRelation{Relation: r, Source: src, Target: tgt})
		if isDirecting(r.Role, roles) {
			g.Directors[r.SourceID] = struct{}{}
		}
	}

	return g, report
}

func missingReason(srcOK, tgtOK bool) string {
	switch {
	case !srcOK && !tgtOK:
		return "missing_both"
	case !srcOK:
		return "missing_source"
	default:
		return "missing_target"
	}
}

func isDirecting(role string, roles []string) bool {
	for _, want := range roles {
		if strings.EqualFold(role, want) {
			return true
		}
	}
	return false
}

// MaxCentrality returns the largest positive finite satellite centrality,
// or 1 when there is none.
func (g *Graph) MaxCentrality() float64 {
	best := 0.0
	for i := range g.Entities {
		e := &g.Entities[i]
		if e.IsAnchor() || e.Centrality == nil {
			continue
		}
		if c := *e.Centrality; c > best && c <= math.MaxFloat64 {
			best = c
		}
	}
	if best == 0 {
		return 1
	}
	return best
}
