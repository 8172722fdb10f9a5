package timeline

import (
	"math"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

const eps = 1e-9

func TestNew_DomainAndEndpoints(t *testing.T) {
	s := New([]int{1955, 1950, 1960}, 50, 750)

	d0, d1 := s.Domain()
	if d0 != 1949 || d1 != 1961 {
		t.Errorf("domain = [%v, %v], want [1949, 1961]", d0, d1)
	}
	if got := s.Map(1949); math.Abs(got-50) > eps {
		t.Errorf("Map(1949) = %v, want 50", got)
	}
	if got := s.Map(1961); math.Abs(got-750) > eps {
		t.Errorf("Map(1961) = %v, want 750", got)
	}
	if got := s.MapYear(1955); math.Abs(got-400) > eps {
		t.Errorf("MapYear(1955) = %v, want 400", got)
	}
}

func TestNew_DegenerateDomains(t *testing.T) {
	tests := []struct {
		name    string
		years   []int
		wantMid float64
	}{
		{"single year", []int{1958}, 1958},
		{"repeated year", []int{1958, 1958, 1958}, 1958},
		{"no years", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.years, 50, 750)
			d0, d1 := s.Domain()
			if d1-d0 <= 0 {
				t.Fatalf("domain width = %v, want > 0", d1-d0)
			}
			if s.Midpoint() != tt.wantMid {
				t.Errorf("Midpoint() = %v, want %v", s.Midpoint(), tt.wantMid)
			}
			x := s.Map(tt.wantMid)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				t.Fatalf("Map(mid) = %v", x)
			}
			if math.Abs(x-400) > eps {
				t.Errorf("Map(mid) = %v, want range centre 400", x)
			}
		})
	}
}

func TestNew_NarrowViewport(t *testing.T) {
	// width 80 with 50px margins on each side gives an inverted range.
	s := New([]int{1950, 1960}, 50, 30)
	r0, r1 := s.Range()
	if r1 <= r0 {
		t.Fatalf("range = [%v, %v], want increasing", r0, r1)
	}
	if s.Map(1950) >= s.Map(1960) {
		t.Error("scale must stay increasing")
	}
}

func TestTicks(t *testing.T) {
	tests := []struct {
		name      string
		years     []int
		count     int
		wantFirst int
		wantLast  int
		wantStep  int
	}{
		{"yearly", []int{1950, 1960}, 10, 1949, 1961, 1},
		{"every other year", []int{1950, 1960}, 5, 1950, 1960, 2},
		{"decades", []int{1900, 2000}, 10, 1900, 2000, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.years, 0, 1000)
			ticks := s.Ticks(tt.count)
			if len(ticks) < 2 {
				t.Fatalf("got %d ticks", len(ticks))
			}
			if ticks[0].Year != tt.wantFirst {
				t.Errorf("first tick = %d, want %d", ticks[0].Year, tt.wantFirst)
			}
			if last := ticks[len(ticks)-1].Year; last != tt.wantLast {
				t.Errorf("last tick = %d, want %d", last, tt.wantLast)
			}
			if step := ticks[1].Year - ticks[0].Year; step != tt.wantStep {
				t.Errorf("step = %d, want %d", step, tt.wantStep)
			}
			if ticks[0].Label != strconv.Itoa(ticks[0].Year) || ticks[0].X != s.MapYear(ticks[0].Year) {
				t.Errorf("tick %+v not on the scale", ticks[0])
			}
		})
	}
}

func TestScale_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		years := rapid.SliceOfN(rapid.IntRange(1880, 2030), 1, 40).Draw(t, "years")
		marginLeft := rapid.Float64Range(0, 100).Draw(t, "marginLeft")
		marginRight := rapid.Float64Range(0, 100).Draw(t, "marginRight")
		width := rapid.Float64Range(400, 4000).Draw(t, "width")

		s := New(years, marginLeft, width-marginRight)

		lo, hi := years[0], years[0]
		for _, y := range years {
			lo = min(lo, y)
			hi = max(hi, y)
		}
		if got := s.MapYear(lo - 1); math.Abs(got-marginLeft) > 1e-6 {
			t.Fatalf("scale(min-1) = %v, want %v", got, marginLeft)
		}
		if got := s.MapYear(hi + 1); math.Abs(got-(width-marginRight)) > 1e-6 {
			t.Fatalf("scale(max+1) = %v, want %v", got, width-marginRight)
		}

		a := rapid.IntRange(1870, 2040).Draw(t, "a")
		b := rapid.IntRange(1870, 2040).Draw(t, "b")
		if a < b && !(s.MapYear(a) < s.MapYear(b)) {
			t.Fatalf("not increasing: scale(%d)=%v, scale(%d)=%v", a, s.MapYear(a), b, s.MapYear(b))
		}
		if math.Abs(s.Invert(s.MapYear(a))-float64(a)) > 1e-6 {
			t.Fatalf("Invert(Map(%d)) = %v", a, s.Invert(s.MapYear(a)))
		}
	})
}
