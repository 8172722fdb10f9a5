package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode_NativeFormat(t *testing.T) {
	input := `{
		"entities": [
			{"id": "m1", "kind": "Anchor", "year": 1954, "label": "Rear Window"},
			{"id": 7, "kind": "Satellite", "label": "Grace Kelly", "centrality": 0.4}
		],
		"relations": [
			{"sourceId": 7, "targetId": "m1", "role": "ACTED_IN"}
		]
	}`

	ds, err := Decode(strings.NewReader(input), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(ds.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(ds.Entities))
	}

	movie := ds.Entities[0]
	if !movie.IsAnchor() || movie.Year == nil || *movie.Year != 1954 {
		t.Errorf("movie decoded as %+v", movie)
	}
	person := ds.Entities[1]
	if person.ID != "7" {
		t.Errorf("numeric id = %q, want \"7\"", person.ID)
	}
	if person.Centrality == nil || *person.Centrality != 0.4 {
		t.Errorf("centrality = %v, want 0.4", person.Centrality)
	}
	if ds.Relations[0].SourceID != "7" || ds.Relations[0].Role != "ACTED_IN" {
		t.Errorf("relation decoded as %+v", ds.Relations[0])
	}
}

func TestDecode_GraphFormat(t *testing.T) {
	input := `{
		"nodes": [
			{"id": "tt1", "label": "Vertigo", "type": "Movie", "year": "1958"},
			{"id": "nm1", "label": "James Stewart", "type": "Person", "betweennessCentrality": 12.5},
			{"id": "nm2", "label": "Kim Novak", "type": "Person", "eigenvectorCentrality": 0.3}
		],
		"links": [
			{"source": "nm1", "target": "tt1", "label": "ACTED_IN"},
			{"source": {"id": "nm2"}, "target": {"id": "tt1"}, "label": "ACTED_IN"}
		]
	}`

	ds, err := Decode(strings.NewReader(input), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := ds.Anchors(); got != 1 {
		t.Errorf("got %d anchors, want 1", got)
	}
	if y := ds.Entities[0].Year; y == nil || *y != 1958 {
		t.Errorf("string year not parsed: %v", y)
	}
	if c := ds.Entities[1].Centrality; c == nil || *c != 12.5 {
		t.Errorf("betweenness centrality = %v, want 12.5", c)
	}
	if c := ds.Entities[2].Centrality; c == nil || *c != 0.3 {
		t.Errorf("eigenvector centrality fallback = %v, want 0.3", c)
	}
	if ds.Entities[1].Attributes["betweennessCentrality"] != 12.5 {
		t.Errorf("attributes should keep the source record, got %v", ds.Entities[1].Attributes)
	}
	if r := ds.Relations[1]; r.SourceID != "nm2" || r.TargetID != "tt1" {
		t.Errorf("object endpoints decoded as %+v", r)
	}
}

func TestDecode_YearRecovery(t *testing.T) {
	tests := []struct {
		name     string
		year     string
		wantYear *int
	}{
		{"number", `1960`, intPtr(1960)},
		{"numeric string", `"1960"`, intPtr(1960)},
		{"padded string", `" 1961 "`, intPtr(1961)},
		{"garbage string", `"sometime"`, nil},
		{"null", `null`, nil},
		{"boolean", `true`, nil},
		{"huge number", `1e300`, nil},
		{"huge string", `"1e300"`, nil},
		{"negative huge", `-1e300`, nil},
		{"overflowing string", `"1e400"`, nil},
		{"bound", `1000000`, intPtr(1000000)},
		{"past bound", `1000001`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"nodes": [{"id": "m", "type": "Movie", "year": ` + tt.year + `}]}`
			ds, err := Decode(strings.NewReader(input), DefaultDecodeOptions())
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			got := ds.Entities[0].Year
			switch {
			case tt.wantYear == nil && got != nil:
				t.Errorf("year = %d, want missing", *got)
			case tt.wantYear != nil && (got == nil || *got != *tt.wantYear):
				t.Errorf("year = %v, want %d", got, *tt.wantYear)
			}
		})
	}
}

func TestDecode_HugeYearIsMissing(t *testing.T) {
	input := `{"nodes": [
		{"id": "m1", "type": "Movie", "year": "1e300"},
		{"id": "m2", "type": "Movie", "year": 1958}
	]}`
	ds, err := Decode(strings.NewReader(input), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	_, report := Normalize(ds, NormalizeOptions{})
	if len(report.MissingYears) != 1 || report.MissingYears[0] != "m1" {
		t.Errorf("missing years = %v, want [m1]", report.MissingYears)
	}
}

func TestDecode_LabelFallback(t *testing.T) {
	input := `{"nodes": [
		{"id": "a", "name": "By Name"},
		{"id": "b", "title": "By Title", "type": "Movie"},
		{"id": "c"}
	]}`
	ds, err := Decode(strings.NewReader(input), DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []string{"By Name", "By Title", "c"}
	for i, w := range want {
		if ds.Entities[i].Label != w {
			t.Errorf("entity %d label = %q, want %q", i, ds.Entities[i].Label, w)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode(strings.NewReader(`[1, 2]`), DefaultDecodeOptions()); !errors.Is(err, ErrMalformed) {
		t.Errorf("array input: err = %v, want ErrMalformed", err)
	}
	if _, err := Decode(strings.NewReader(`{"nodes": [`), DefaultDecodeOptions()); err == nil {
		t.Error("truncated input should fail")
	}
	ds, err := Decode(strings.NewReader(``), DefaultDecodeOptions())
	if err != nil || !ds.IsEmpty() {
		t.Errorf("empty input: ds = %+v, err = %v", ds, err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"Anchor", KindAnchor, false},
		{"anchor", KindAnchor, false},
		{"Satellite", KindSatellite, false},
		{"", KindSatellite, false},
		{"Planet", KindSatellite, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
