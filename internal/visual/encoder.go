// Package visual derives node radius, fill colour, and label style from
// entity attributes. Every function here is pure.
package visual

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
)

// Role is the colour class of an entity.
type Role int

const (
	RoleSatellite Role = iota
	RoleDirector
	RoleAnchor
)

// String returns the role name used in legends and JSON output.
func (r Role) String() string {
	switch r {
	case RoleAnchor:
		return "anchor"
	case RoleDirector:
		return "director"
	default:
		return "satellite"
	}
}

// Label is the text style of a node label.
type Label struct {
	Text string  `json:"text"`
	Size float64 `json:"size"`
	Bold bool    `json:"bold"`
}

// Style is the full encoding of one entity.
type Style struct {
	Role   Role    `json:"-"`
	Radius float64 `json:"radius"`
	Fill   string  `json:"fill"`
	Label  Label   `json:"label"`
}

// Encoder maps entities of one dataset to styles. It captures the dataset's
// peak centrality and director set at construction.
type Encoder struct {
	cfg           config.Visual
	maxCentrality float64
	directors     dataset.DirectorSet
}

// NewEncoder builds an encoder for g. A nil graph encodes every satellite as
// a non-director with the minimum radius.
func NewEncoder(cfg config.Visual, g *dataset.Graph) *Encoder {
	e := &Encoder{cfg: cfg, maxCentrality: 1}
	if g != nil {
		e.maxCentrality = g.MaxCentrality()
		e.directors = g.Directors
	}
	return e
}

// MaxCentrality returns the centrality that maps to the largest satellite radius.
func (e *Encoder) MaxCentrality() float64 {
	return e.maxCentrality
}

// Role classifies ent for colouring.
func (e *Encoder) Role(ent *dataset.Entity) Role {
	switch {
	case ent.IsAnchor():
		return RoleAnchor
	case e.directors.Has(ent.ID):
		return RoleDirector
	default:
		return RoleSatellite
	}
}

// Radius returns the node radius. Satellites scale with the square root of
// their relative centrality; missing, non-finite, or non-positive values get
// the minimum radius.
func (e *Encoder) Radius(ent *dataset.Entity) float64 {
	if ent.IsAnchor() {
		return e.cfg.AnchorRadius
	}
	c, ok := UsableCentrality(ent.Centrality)
	if !ok {
		return e.cfg.MinRadius
	}
	ratio := math.Min(c/e.maxCentrality, 1)
	return math.Max(e.cfg.MinRadius, e.cfg.SatelliteBase+e.cfg.SatelliteScale*math.Sqrt(ratio))
}

// UsableCentrality reports whether c is present, finite, and positive.
func UsableCentrality(c *float64) (float64, bool) {
	if c == nil || math.IsNaN(*c) || math.IsInf(*c, 0) || *c <= 0 {
		return 0, false
	}
	return *c, true
}

// Fill returns the fill colour as #RRGGBB.
func (e *Encoder) Fill(ent *dataset.Entity) string {
	return e.roleColor(e.Role(ent))
}

func (e *Encoder) roleColor(r Role) string {
	switch r {
	case RoleAnchor:
		return e.cfg.AnchorColor
	case RoleDirector:
		return e.cfg.DirectorColor
	default:
		return e.cfg.SatelliteColor
	}
}

// Label returns the label text and font for ent.
func (e *Encoder) Label(ent *dataset.Entity) Label {
	f := e.cfg.SatelliteFont
	if ent.IsAnchor() {
		f = e.cfg.AnchorFont
	}
	return Label{Text: ent.Label, Size: f.Size, Bold: f.Bold}
}

// Style combines role, radius, fill, and label.
func (e *Encoder) Style(ent *dataset.Entity) Style {
	r := e.Role(ent)
	return Style{
		Role:   r,
		Radius: e.Radius(ent),
		Fill:   e.roleColor(r),
		Label:  e.Label(ent),
	}
}

// LegendEntry is one swatch of the colour legend.
type LegendEntry struct {
	Role  Role
	Text  string
	Color string
}

// Legend returns the swatches in display order.
func (e *Encoder) Legend() []LegendEntry {
	return []LegendEntry{
		{Role: RoleAnchor, Text: "Movies", Color: e.cfg.AnchorColor},
		{Role: RoleDirector, Text: "Directors", Color: e.cfg.DirectorColor},
		{Role: RoleSatellite, Text: "Actors", Color: e.cfg.SatelliteColor},
	}
}

// ParseHex converts #RRGGBB into an opaque colour.
func ParseHex(s string) (color.RGBA, error) {
	if !config.IsHexColor(s) {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// RGBA is ParseHex for colours already validated by config. Invalid input
// yields opaque black.
func RGBA(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}
