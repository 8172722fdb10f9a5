package integration

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type layoutResult struct {
	Ticks   int  `json:"ticks"`
	Settled bool `json:"settled"`
	Nodes   []struct {
		ID  string  `json:"id"`
		X   float64 `json:"x"`
		Y   float64 `json:"y"`
		Pin string  `json:"pin"`
	} `json:"nodes"`
	Report struct {
		DroppedRelations []json.RawMessage `json:"dropped_relations"`
	} `json:"report"`
}

func TestLayout(t *testing.T) {
	e := setupEnv(t)
	var res layoutResult
	decode(t, e.mustRun(t, "layout", "films.json"), &res)

	if !res.Settled {
		t.Errorf("layout did not settle after %d ticks", res.Ticks)
	}
	if len(res.Nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(res.Nodes))
	}
	if len(res.Report.DroppedRelations) != 1 {
		t.Errorf("expected the dangling relation to be reported, got %d", len(res.Report.DroppedRelations))
	}

	x := map[string]float64{}
	for _, n := range res.Nodes {
		x[n.ID] = n.X
		if strings.HasPrefix(n.ID, "m") && n.Pin != "pinned_by_role" {
			t.Errorf("anchor %s pin = %q, want pinned_by_role", n.ID, n.Pin)
		}
	}
	if !(x["m1"] < x["m2"] && x["m2"] < x["m3"]) {
		t.Errorf("anchors not ordered by year: m1=%.1f m2=%.1f m3=%.1f", x["m1"], x["m2"], x["m3"])
	}
}

func TestLayoutDeterministic(t *testing.T) {
	e := setupEnv(t)
	a := e.mustRun(t, "layout", "films.json")
	b := e.mustRun(t, "layout", "films.json")
	if a != b {
		t.Error("two runs with the same seed produced different layouts")
	}
}

func TestLayoutStream(t *testing.T) {
	e := setupEnv(t)
	out := e.mustRun(t, "layout", "films.json", "--stream", "--max-ticks", "5")

	scanner := bufio.NewScanner(strings.NewReader(out))
	ticks := 0
	for scanner.Scan() {
		var frame struct {
			Tick  int               `json:"tick"`
			Nodes []json.RawMessage `json:"nodes"`
		}
		decode(t, scanner.Text(), &frame)
		ticks++
		if frame.Tick != ticks {
			t.Errorf("line %d has tick %d", ticks, frame.Tick)
		}
		if len(frame.Nodes) != 6 {
			t.Errorf("line %d has %d nodes", ticks, len(frame.Nodes))
		}
	}
	if ticks != 5 {
		t.Errorf("expected 5 frames, got %d", ticks)
	}
}

func TestLayoutErrors(t *testing.T) {
	e := setupEnv(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing dataset", []string{"layout", "nope.json"}, 3},
		{"force out of range", []string{"layout", "films.json", "--charge=50"}, 2},
		{"missing config", []string{"layout", "films.json", "--config", "missing.yml"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := e.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected failure")
			}
			if got := exitCode(err); got != tt.code {
				t.Errorf("exit code = %d, want %d", got, tt.code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			decode(t, out, &resp)
			if resp.Error == "" {
				t.Error("expected an error message in JSON output")
			}
		})
	}
}

func TestRender(t *testing.T) {
	e := setupEnv(t)
	tests := []struct {
		file string
		want string
	}{
		{"out.svg", "<svg"},
		{"out.png", "\x89PNG"},
		{"out.html", "<!DOCTYPE html>"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			var resp struct {
				Output  string `json:"output"`
				Settled bool   `json:"settled"`
			}
			decode(t, e.mustRun(t, "render", "films.json", "-o", tt.file), &resp)
			if resp.Output != tt.file {
				t.Errorf("output = %q, want %q", resp.Output, tt.file)
			}
			data, err := os.ReadFile(e.path(tt.file))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("%s does not contain %q", tt.file, tt.want)
			}
		})
	}
}

func TestRenderHTMLIncludesEntityDetails(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "render", "films.json", "-o", "films.html")
	data, err := os.ReadFile(e.path("films.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Rear Window", "Alfred Hitchcock", `data-id="p1"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRenderEvery(t *testing.T) {
	e := setupEnv(t)
	var resp struct {
		Frames []string `json:"frames"`
	}
	decode(t, e.mustRun(t, "render", "films.json", "-o", "anim/films.svg", "--every", "50"), &resp)
	if len(resp.Frames) < 2 {
		t.Fatalf("expected several frames, got %v", resp.Frames)
	}
	for _, p := range resp.Frames {
		if filepath.Dir(p) != filepath.Join("anim", "films") {
			t.Errorf("frame %s not in anim/films", p)
		}
		if _, err := os.Stat(e.path(p)); err != nil {
			t.Errorf("frame %s: %v", p, err)
		}
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	e := setupEnv(t)
	_, _, err := e.run(t, "render", "films.json", "-o", "out.gif")
	if got := exitCode(err); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}

func TestImportQuery(t *testing.T) {
	e := setupEnv(t)

	var imp struct {
		Dataset   string `json:"dataset"`
		Entities  int    `json:"entities"`
		Relations int    `json:"relations"`
	}
	decode(t, e.mustRun(t, "import", "films.json", "--name", "hitchcock"), &imp)
	if imp.Dataset != "hitchcock" || imp.Entities != 6 {
		t.Errorf("unexpected import result %+v", imp)
	}

	var list []struct {
		Name string `json:"name"`
	}
	decode(t, e.mustRun(t, "list"), &list)
	if len(list) != 1 || list[0].Name != "hitchcock" {
		t.Errorf("unexpected list %+v", list)
	}

	var sub struct {
		Entities []struct {
			ID string `json:"id"`
		} `json:"entities"`
		Relations []json.RawMessage `json:"relations"`
	}
	decode(t, e.mustRun(t, "query", "hitchcock", "--from", "1958"), &sub)
	ids := make(map[string]bool)
	for _, ent := range sub.Entities {
		ids[ent.ID] = true
	}
	if ids["m1"] || !ids["m2"] || !ids["m3"] {
		t.Errorf("year bound not applied: %v", ids)
	}
	if len(sub.Entities) != 5 || len(sub.Relations) != 4 {
		t.Errorf("got %d entities, %d relations; want 5, 4", len(sub.Entities), len(sub.Relations))
	}

	// Catalog names work wherever a dataset is expected.
	var res layoutResult
	decode(t, e.mustRun(t, "layout", "hitchcock", "--max-ticks", "10"), &res)
	if res.Ticks != 10 {
		t.Errorf("ticks = %d, want 10", res.Ticks)
	}

	// Query output feeds back into layout.
	e.mustRun(t, "query", "hitchcock", "--entity", "p3", "-o", "perkins.json")
	decode(t, e.mustRun(t, "layout", "perkins.json"), &res)
	if len(res.Nodes) != 2 {
		t.Errorf("perkins subgraph has %d nodes, want 2", len(res.Nodes))
	}

	e.mustRun(t, "remove", "hitchcock")
	_, _, err := e.run(t, "query", "hitchcock")
	if got := exitCode(err); got != 3 {
		t.Errorf("query after remove exit code = %d, want 3", got)
	}
}

func TestConfigGetSet(t *testing.T) {
	e := setupEnv(t)
	catalog := e.path("elsewhere")

	var upd struct {
		Status string `json:"status"`
		Key    string `json:"key"`
	}
	decode(t, e.mustRun(t, "config", "catalog-path", catalog), &upd)
	if upd.Status != "updated" || upd.Key != "catalog_path" {
		t.Errorf("unexpected update %+v", upd)
	}

	var got map[string]string
	decode(t, e.mustRun(t, "config", "catalog_path"), &got)
	if got["catalog_path"] != catalog {
		t.Errorf("catalog_path = %q, want %q", got["catalog_path"], catalog)
	}

	e.mustRun(t, "import", "films.json")
	if _, err := os.Stat(filepath.Join(catalog, "datasets")); err != nil {
		t.Errorf("catalog not created at configured path: %v", err)
	}

	_, _, err := e.run(t, "config", "bogus")
	if code := exitCode(err); code != 1 {
		t.Errorf("unknown key exit code = %d, want 1", code)
	}
}

func TestConfigWriteAndUse(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "config", "--write", "reel.yml", "--link-distance", "60")

	data, err := os.ReadFile(e.path("reel.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "link_distance: 60") {
		t.Errorf("written config missing override:\n%s", data)
	}

	e.mustRun(t, "config", "default-config", e.path("reel.yml"))
	show := e.mustRun(t, "config", "--show")
	if !strings.Contains(show, "link_distance: 60") {
		t.Errorf("default config not picked up:\n%s", show)
	}
}
