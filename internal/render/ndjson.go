package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"

	"github.com/matsen/reelgraph/internal/engine"
)

// StreamNode is the per-node record of a streamed frame.
type StreamNode struct {
	ID  string  `json:"id"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Pin string  `json:"pin"`
}

// StreamFrame is one NDJSON line: positions only, no styling.
type StreamFrame struct {
	Tick    int          `json:"tick"`
	Alpha   float64      `json:"alpha"`
	Settled bool         `json:"settled"`
	Nodes   []StreamNode `json:"nodes"`
}

// Compact strips styling from a frame.
func Compact(f engine.Frame) StreamFrame {
	out := StreamFrame{Tick: f.Tick, Alpha: f.Alpha, Settled: f.Settled, Nodes: make([]StreamNode, len(f.Nodes))}
	for i, n := range f.Nodes {
		out.Nodes[i] = StreamNode{ID: n.ID, X: n.X, Y: n.Y, Pin: n.Pin}
	}
	return out
}

// Stream writes frames as newline-delimited JSON. It is safe to use from the
// engine's tick callback while another goroutine writes.
type Stream struct {
	mu   sync.Mutex
	enc  *json.Encoder
	full bool
	n    int
}

// NewStream returns a stream writing compact frames to w. With full set each
// line is the complete frame including styles and links.
func NewStream(w io.Writer, full bool) *Stream {
	return &Stream{enc: json.NewEncoder(w), full: full}
}

// Write appends one frame.
func (s *Stream) Write(f engine.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.full {
		err = s.enc.Encode(f)
	} else {
		err = s.enc.Encode(Compact(f))
	}
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Tick, err)
	}
	s.n++
	return nil
}

// Count returns the number of frames written.
func (s *Stream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
