// Package timeline maps anchor years onto the horizontal screen axis.
package timeline

import (
	"fmt"
	"math"
)

// Padding is added on both sides of the observed year extent so the first and
// last anchors never sit on the range edges.
const Padding = 1.0

// minRangeSpan keeps the mapping invertible when the viewport is narrower
// than its margins.
const minRangeSpan = 1.0

// Scale is a linear year→x mapping.
type Scale struct {
	d0, d1 float64 // domain (years)
	r0, r1 float64 // range (pixels)
}

// New builds a scale over the given anchor years and pixel range
// [rangeStart, rangeEnd]. The domain is [min-Padding, max+Padding]; with no
// years it is [-Padding, Padding], so the domain never collapses.
func New(years []int, rangeStart, rangeEnd float64) *Scale {
	s := &Scale{r0: rangeStart, r1: rangeEnd}
	if s.r1-s.r0 < minRangeSpan {
		s.r1 = s.r0 + minRangeSpan
	}

	if len(years) == 0 {
		s.d0, s.d1 = -Padding, Padding
		return s
	}

	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	s.d0 = float64(lo) - Padding
	s.d1 = float64(hi) + Padding
	return s
}

// Map converts a (possibly fractional) year to x.
func (s *Scale) Map(year float64) float64 {
	t := (year - s.d0) / (s.d1 - s.d0)
	return s.r0 + t*(s.r1-s.r0)
}

// MapYear converts an integer year to x.
func (s *Scale) MapYear(year int) float64 {
	return s.Map(float64(year))
}

// Invert converts x back to a year.
func (s *Scale) Invert(x float64) float64 {
	t := (x - s.r0) / (s.r1 - s.r0)
	return s.d0 + t*(s.d1-s.d0)
}

// Domain returns the year extent.
func (s *Scale) Domain() (float64, float64) {
	return s.d0, s.d1
}

// Range returns the pixel extent.
func (s *Scale) Range() (float64, float64) {
	return s.r0, s.r1
}

// Midpoint returns the year in the middle of the domain. Anchors without a
// usable year are pinned here.
func (s *Scale) Midpoint() float64 {
	return (s.d0 + s.d1) / 2
}

// Tick is one labelled axis position.
type Tick struct {
	Year  int     `json:"year"`
	X     float64 `json:"x"`
	Label string  `json:"label"`
}

// Ticks returns integer-year ticks at a 1, 2, or 5 × 10^k step chosen so that
// roughly count ticks cover the domain.
func (s *Scale) Ticks(count int) []Tick {
	if count <= 0 {
		count = 10
	}
	step := tickStep(s.d0, s.d1, count)
	first := math.Ceil(s.d0/step) * step
	last := math.Floor(s.d1/step) * step

	var ticks []Tick
	for v := first; v <= last+step/2; v += step {
		year := int(math.Round(v))
		ticks = append(ticks, Tick{
			Year:  year,
			X:     s.MapYear(year),
			Label: fmt.Sprintf("%d", year),
		})
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickStep(start, stop float64, count int) float64 {
	raw := (stop - start) / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	ratio := raw / base

	factor := 1.0
	switch {
	case ratio >= e10:
		factor = 10
	case ratio >= e5:
		factor = 5
	case ratio >= e2:
		factor = 2
	}

	step := factor * base
	if step < 1 {
		step = 1 // years are integral
	}
	return math.Round(step)
}
