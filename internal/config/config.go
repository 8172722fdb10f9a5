// Package config handles layout configuration and the global user config.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidValue is returned when a configuration value is out of range.
var ErrInvalidValue = errors.New("invalid config value")

// Forces are the four runtime-tunable force parameters.
type Forces struct {
	LinkDistance     float64 `yaml:"link_distance" toml:"link_distance" json:"link_distance"`
	ChargeStrength   float64 `yaml:"charge_strength" toml:"charge_strength" json:"charge_strength"`
	CollisionRadius  float64 `yaml:"collision_radius" toml:"collision_radius" json:"collision_radius"`
	PositionStrength float64 `yaml:"position_strength" toml:"position_strength" json:"position_strength"`
}

// Partial is a force update where nil fields are left unchanged.
type Partial struct {
	LinkDistance     *float64 `json:"link_distance,omitempty"`
	ChargeStrength   *float64 `json:"charge_strength,omitempty"`
	CollisionRadius  *float64 `json:"collision_radius,omitempty"`
	PositionStrength *float64 `json:"position_strength,omitempty"`
}

// IsEmpty reports whether the update names no field.
func (p Partial) IsEmpty() bool {
	return p.LinkDistance == nil && p.ChargeStrength == nil && p.CollisionRadius == nil && p.PositionStrength == nil
}

// Apply returns f with the fields named by p replaced.
func (f Forces) Apply(p Partial) Forces {
	if p.LinkDistance != nil {
		f.LinkDistance = *p.LinkDistance
	}
	if p.ChargeStrength != nil {
		f.ChargeStrength = *p.ChargeStrength
	}
	if p.CollisionRadius != nil {
		f.CollisionRadius = *p.CollisionRadius
	}
	if p.PositionStrength != nil {
		f.PositionStrength = *p.PositionStrength
	}
	return f
}

// Margins are the viewport insets around the plot area.
type Margins struct {
	Left   float64 `yaml:"left" toml:"left" json:"left"`
	Right  float64 `yaml:"right" toml:"right" json:"right"`
	Top    float64 `yaml:"top" toml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" toml:"bottom" json:"bottom"`
}

// Viewport is the size of the drawing surface in pixels.
type Viewport struct {
	Width   float64 `yaml:"width" toml:"width" json:"width"`
	Height  float64 `yaml:"height" toml:"height" json:"height"`
	Margins Margins `yaml:"margins" toml:"margins" json:"margins"`
}

// Simulation holds the solver constants.
type Simulation struct {
	AlphaMin        float64 `yaml:"alpha_min" toml:"alpha_min"`
	AlphaDecay      float64 `yaml:"alpha_decay" toml:"alpha_decay"`
	VelocityDecay   float64 `yaml:"velocity_decay" toml:"velocity_decay"`
	DragAlphaTarget float64 `yaml:"drag_alpha_target" toml:"drag_alpha_target"`
	Theta           float64 `yaml:"theta" toml:"theta"`
	Seed            int64   `yaml:"seed" toml:"seed"`
	TickRate        float64 `yaml:"tick_rate" toml:"tick_rate"` // ticks per second for background loops
}

// Zoom bounds the view transform scale.
type Zoom struct {
	MinScale         float64 `yaml:"min_scale" toml:"min_scale"`
	MaxScale         float64 `yaml:"max_scale" toml:"max_scale"`
	WheelSensitivity float64 `yaml:"wheel_sensitivity" toml:"wheel_sensitivity"`
}

// Interaction tunes gesture recognition.
type Interaction struct {
	ClickTolerance     float64 `yaml:"click_tolerance" toml:"click_tolerance"`
	AnchorVerticalDrag bool    `yaml:"anchor_vertical_drag" toml:"anchor_vertical_drag"`
}

// Font is a label style.
type Font struct {
	Size float64 `yaml:"size" toml:"size"`
	Bold bool    `yaml:"bold" toml:"bold"`
}

// Visual holds the encoding constants for radius, colour, and labels.
type Visual struct {
	AnchorRadius   float64 `yaml:"anchor_radius" toml:"anchor_radius"`
	SatelliteBase  float64 `yaml:"satellite_base" toml:"satellite_base"`
	SatelliteScale float64 `yaml:"satellite_scale" toml:"satellite_scale"`
	MinRadius      float64 `yaml:"min_radius" toml:"min_radius"`
	AnchorColor    string  `yaml:"anchor_color" toml:"anchor_color"`
	DirectorColor  string  `yaml:"director_color" toml:"director_color"`
	SatelliteColor string  `yaml:"satellite_color" toml:"satellite_color"`
	AnchorFont     Font    `yaml:"anchor_font" toml:"anchor_font"`
	SatelliteFont  Font    `yaml:"satellite_font" toml:"satellite_font"`
}

// Dataset controls how input records are interpreted.
type Dataset struct {
	DirectingRoles   []string `yaml:"directing_roles" toml:"directing_roles"`
	AnchorKinds      []string `yaml:"anchor_kinds" toml:"anchor_kinds"`
	CentralityFields []string `yaml:"centrality_fields" toml:"centrality_fields"`
}

// Config is the full layout configuration.
type Config struct {
	Forces      Forces      `yaml:"forces" toml:"forces"`
	Viewport    Viewport    `yaml:"viewport" toml:"viewport"`
	Simulation  Simulation  `yaml:"simulation" toml:"simulation"`
	Zoom        Zoom        `yaml:"zoom" toml:"zoom"`
	Interaction Interaction `yaml:"interaction" toml:"interaction"`
	Visual      Visual      `yaml:"visual" toml:"visual"`
	Dataset     Dataset     `yaml:"dataset" toml:"dataset"`
}

// Default returns the stock layout configuration.
func Default() *Config {
	return &Config{
		Forces: Forces{
			LinkDistance:     100,
			ChargeStrength:   -200,
			CollisionRadius:  30,
			PositionStrength: 0.3,
		},
		Viewport: Viewport{
			Width:   1200,
			Height:  800,
			Margins: Margins{Left: 50, Right: 50, Top: 40, Bottom: 80},
		},
		Simulation: Simulation{
			AlphaMin:        0.001,
			AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
			VelocityDecay:   0.4,
			DragAlphaTarget: 0.3,
			Theta:           0.9,
			Seed:            1,
			TickRate:        60,
		},
		Zoom: Zoom{MinScale: 0.1, MaxScale: 4, WheelSensitivity: 0.002},
		Interaction: Interaction{
			ClickTolerance:     3,
			AnchorVerticalDrag: true,
		},
		Visual: Visual{
			AnchorRadius:   25,
			SatelliteBase:  5,
			SatelliteScale: 45,
			MinRadius:      5,
			AnchorColor:    "#8E44AD",
			DirectorColor:  "#FF8C00",
			SatelliteColor: "#D4A843",
			AnchorFont:     Font{Size: 16, Bold: true},
			SatelliteFont:  Font{Size: 12},
		},
		Dataset: Dataset{
			DirectingRoles:   []string{"DIRECTED"},
			AnchorKinds:      []string{"Movie", "Anchor"},
			CentralityFields: []string{"betweennessCentrality", "eigenvectorCentrality", "centrality"},
		},
	}
}

// Load reads a YAML or TOML (by extension) config file over the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Ranges accepted for each force parameter.
const (
	MinLinkDistance     = 10
	MaxLinkDistance     = 300
	MinChargeStrength   = -1000
	MaxChargeStrength   = 0
	MinCollisionRadius  = 5
	MaxCollisionRadius  = 100
	MinPositionStrength = 0
	MaxPositionStrength = 1
)

// Validate checks the forces against the control ranges.
func (f Forces) Validate() error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"forces.link_distance", f.LinkDistance, MinLinkDistance, MaxLinkDistance},
		{"forces.charge_strength", f.ChargeStrength, MinChargeStrength, MaxChargeStrength},
		{"forces.collision_radius", f.CollisionRadius, MinCollisionRadius, MaxCollisionRadius},
		{"forces.position_strength", f.PositionStrength, MinPositionStrength, MaxPositionStrength},
	}
	for _, c := range checks {
		if err := inRange(c.name, c.v, c.min, c.max); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Forces.Validate(); err != nil {
		return err
	}

	v := c.Viewport
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalidValue, v.Width, v.Height)
	}
	m := v.Margins
	if m.Left < 0 || m.Right < 0 || m.Top < 0 || m.Bottom < 0 {
		return fmt.Errorf("%w: viewport margins must be non-negative", ErrInvalidValue)
	}

	s := c.Simulation
	if err := inRange("simulation.alpha_min", s.AlphaMin, 0, 1); err != nil {
		return err
	}
	if s.AlphaDecay <= 0 || s.AlphaDecay > 1 {
		return fmt.Errorf("%w: simulation.alpha_decay must be in (0, 1], got %g", ErrInvalidValue, s.AlphaDecay)
	}
	if err := inRange("simulation.velocity_decay", s.VelocityDecay, 0, 1); err != nil {
		return err
	}
	if err := inRange("simulation.drag_alpha_target", s.DragAlphaTarget, 0, 1); err != nil {
		return err
	}
	if s.Theta < 0 || isBad(s.Theta) {
		return fmt.Errorf("%w: simulation.theta must be non-negative, got %g", ErrInvalidValue, s.Theta)
	}
	if s.TickRate <= 0 || isBad(s.TickRate) {
		return fmt.Errorf("%w: simulation.tick_rate must be positive, got %g", ErrInvalidValue, s.TickRate)
	}

	z := c.Zoom
	if z.MinScale <= 0 || z.MaxScale < z.MinScale {
		return fmt.Errorf("%w: zoom range [%g, %g] is empty", ErrInvalidValue, z.MinScale, z.MaxScale)
	}
	if c.Interaction.ClickTolerance < 0 {
		return fmt.Errorf("%w: interaction.click_tolerance must be non-negative", ErrInvalidValue)
	}

	vis := c.Visual
	if vis.MinRadius <= 0 || vis.AnchorRadius <= 0 || vis.SatelliteBase < 0 || vis.SatelliteScale < 0 {
		return fmt.Errorf("%w: visual radii must be positive", ErrInvalidValue)
	}
	for name, col := range map[string]string{
		"visual.anchor_color":    vis.AnchorColor,
		"visual.director_color":  vis.DirectorColor,
		"visual.satellite_color": vis.SatelliteColor,
	} {
		if !IsHexColor(col) {
			return fmt.Errorf("%w: %s %q is not a #RRGGBB colour", ErrInvalidValue, name, col)
		}
	}
	return nil
}

func inRange(name string, v, min, max float64) error {
	if isBad(v) || v < min || v > max {
		return fmt.Errorf("%w: %s = %g, want %g..%g", ErrInvalidValue, name, v, min, max)
	}
	return nil
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// IsHexColor reports whether s has the form #RRGGBB.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
