package visual

import (
	"math"
	"testing"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"pgregory.net/rapid"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// directorGraph is three anchors and two satellites, each directing one
// anchor and acting in another.
func directorGraph(extra ...dataset.Entity) *dataset.Graph {
	ds := &dataset.Dataset{
		Entities: []dataset.Entity{
			{ID: "m1950", Kind: dataset.KindAnchor, Label: "m1950", Year: intPtr(1950)},
			{ID: "m1955", Kind: dataset.KindAnchor, Label: "m1955", Year: intPtr(1955)},
			{ID: "m1960", Kind: dataset.KindAnchor, Label: "m1960", Year: intPtr(1960)},
			{ID: "p1", Kind: dataset.KindSatellite, Label: "p1", Centrality: floatPtr(4)},
			{ID: "p2", Kind: dataset.KindSatellite, Label: "p2", Centrality: floatPtr(1)},
		},
		Relations: []dataset.Relation{
			{SourceID: "p1", TargetID: "m1950", Role: "DIRECTED"},
			{SourceID: "p1", TargetID: "m1955", Role: "ACTED_IN"},
			{SourceID: "p2", TargetID: "m1960", Role: "DIRECTED"},
			{SourceID: "p2", TargetID: "m1950", Role: "ACTED_IN"},
		},
	}
	ds.Entities = append(ds.Entities, extra...)
	g, _ := dataset.Normalize(ds, dataset.NormalizeOptions{})
	return g
}

func TestEncoder_Colors(t *testing.T) {
	cfg := config.Default().Visual
	extra := dataset.Entity{ID: "p3", Kind: dataset.KindSatellite, Label: "p3"}
	g := directorGraph(extra)
	enc := NewEncoder(cfg, g)

	tests := []struct {
		id   string
		want string
		role Role
	}{
		{"m1950", cfg.AnchorColor, RoleAnchor},
		{"p1", cfg.DirectorColor, RoleDirector},
		{"p2", cfg.DirectorColor, RoleDirector},
		{"p3", cfg.SatelliteColor, RoleSatellite},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ent, ok := g.Entity(tt.id)
			if !ok {
				t.Fatalf("entity %s missing", tt.id)
			}
			if got := enc.Fill(&ent); got != tt.want {
				t.Errorf("Fill() = %q, want %q", got, tt.want)
			}
			if got := enc.Role(&ent); got != tt.role {
				t.Errorf("Role() = %v, want %v", got, tt.role)
			}
		})
	}
}

func TestEncoder_Radius(t *testing.T) {
	cfg := config.Default().Visual
	g := directorGraph()
	enc := NewEncoder(cfg, g)

	if enc.MaxCentrality() != 4 {
		t.Fatalf("MaxCentrality() = %v, want 4", enc.MaxCentrality())
	}

	tests := []struct {
		name string
		ent  dataset.Entity
		want float64
	}{
		{"anchor fixed", dataset.Entity{ID: "m", Kind: dataset.KindAnchor}, 25},
		{"peak centrality", dataset.Entity{ID: "a", Centrality: floatPtr(4)}, 50},
		{"quarter centrality", dataset.Entity{ID: "b", Centrality: floatPtr(1)}, 5 + 45*0.5},
		{"missing", dataset.Entity{ID: "c"}, 5},
		{"negative", dataset.Entity{ID: "d", Centrality: floatPtr(-2)}, 5},
		{"zero", dataset.Entity{ID: "e", Centrality: floatPtr(0)}, 5},
		{"nan", dataset.Entity{ID: "f", Centrality: floatPtr(math.NaN())}, 5},
		{"inf", dataset.Entity{ID: "g", Centrality: floatPtr(math.Inf(1))}, 5},
		{"above peak clamps", dataset.Entity{ID: "h", Centrality: floatPtr(100)}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enc.Radius(&tt.ent); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Radius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncoder_RadiusMonotoneAndBounded(t *testing.T) {
	cfg := config.Default().Visual
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.Float64Range(-10, 1000), 1, 20).Draw(t, "centralities")
		ds := &dataset.Dataset{}
		for i, v := range values {
			ds.Entities = append(ds.Entities, dataset.Entity{
				ID:         string(rune('a' + i)),
				Centrality: floatPtr(v),
			})
		}
		g, _ := dataset.Normalize(ds, dataset.NormalizeOptions{})
		enc := NewEncoder(cfg, g)

		lo, hi := cfg.MinRadius, cfg.MinRadius+cfg.SatelliteScale
		for i := range g.Entities {
			a := &g.Entities[i]
			ra := enc.Radius(a)
			if ra < lo || ra > hi {
				t.Fatalf("radius %v for centrality %v outside [%v, %v]", ra, *a.Centrality, lo, hi)
			}
			for j := range g.Entities {
				b := &g.Entities[j]
				if *a.Centrality <= *b.Centrality && ra > enc.Radius(b) {
					t.Fatalf("radius not monotone: c=%v r=%v, c=%v r=%v", *a.Centrality, ra, *b.Centrality, enc.Radius(b))
				}
			}
		}
	})
}

func TestEncoder_Label(t *testing.T) {
	enc := NewEncoder(config.Default().Visual, nil)

	a := dataset.Entity{ID: "m", Kind: dataset.KindAnchor, Label: "Vertigo"}
	if l := enc.Label(&a); l.Text != "Vertigo" || l.Size != 16 || !l.Bold {
		t.Errorf("anchor label = %+v", l)
	}
	s := dataset.Entity{ID: "p", Label: "Kim Novak"}
	if l := enc.Label(&s); l.Size != 12 || l.Bold {
		t.Errorf("satellite label = %+v", l)
	}
	if st := enc.Style(&s); st.Fill != config.Default().Visual.SatelliteColor || st.Radius != 5 {
		t.Errorf("nil-graph style = %+v", st)
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#8E44AD")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if c.R != 0x8E || c.G != 0x44 || c.B != 0xAD || c.A != 0xff {
		t.Errorf("ParseHex() = %+v", c)
	}
	if _, err := ParseHex("red"); err == nil {
		t.Error("ParseHex(red) should fail")
	}
	if got := RGBA("bogus"); got.R != 0 || got.A != 0xff {
		t.Errorf("RGBA(bogus) = %+v, want opaque black", got)
	}
}

func TestLegend(t *testing.T) {
	legend := NewEncoder(config.Default().Visual, nil).Legend()
	if len(legend) != 3 || legend[0].Role != RoleAnchor || legend[2].Color != "#D4A843" {
		t.Errorf("Legend() = %+v", legend)
	}
}
