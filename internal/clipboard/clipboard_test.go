package clipboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/matsen/reelgraph/internal/dataset"
)

func TestIsAvailable(t *testing.T) {
	// Availability depends on the system; this only checks it doesn't panic.
	_ = IsAvailable()
}

func stubWriter(t *testing.T, err error) *string {
	t.Helper()
	var got string
	orig := writeAll
	writeAll = func(s string) error {
		got = s
		return err
	}
	t.Cleanup(func() { writeAll = orig })
	return &got
}

func TestCopyEntity(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}
	got := stubWriter(t, nil)

	year := 1958
	ent := dataset.Entity{ID: "m1958", Kind: dataset.KindAnchor, Label: "Vertigo", Year: &year}
	if err := CopyEntity(ent); err != nil {
		t.Fatalf("CopyEntity() error = %v", err)
	}
	for _, want := range []string{`"id": "m1958"`, `"kind": "Anchor"`, `"year": 1958`} {
		if !strings.Contains(*got, want) {
			t.Errorf("clipboard text missing %q:\n%s", want, *got)
		}
	}
}

func TestCopy_WriterError(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}
	stubWriter(t, errors.New("no display"))

	if err := Copy("x"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Errorf("Copy() error = %v, want ErrClipboardUnavailable", err)
	}
}

func TestFormatEntity(t *testing.T) {
	c := 0.5
	text, err := FormatEntity(dataset.Entity{ID: "p1", Label: "Grace Kelly", Centrality: &c,
		Attributes: map[string]any{"born": 1929}})
	if err != nil {
		t.Fatalf("FormatEntity() error = %v", err)
	}
	for _, want := range []string{`"label": "Grace Kelly"`, `"centrality": 0.5`, `"born": 1929`} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatEntity() missing %q:\n%s", want, text)
		}
	}
}
