package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matsen/reelgraph/internal/engine"
)

// frameMsg carries a frame produced by the engine's background loop.
type frameMsg engine.Frame

// Frames relays frames from the engine's tick callback to the program. The
// callback never blocks: a frame the program has not picked up yet is
// replaced by the newer one.
type Frames struct {
	ch chan engine.Frame
}

// NewFrames creates an empty relay.
func NewFrames() *Frames {
	return &Frames{ch: make(chan engine.Frame, 1)}
}

// Publish offers f to the program. It has the engine tick callback
// signature, so it can be passed to engine.WithOnTick directly.
func (r *Frames) Publish(_ context.Context, f engine.Frame) {
	for {
		select {
		case r.ch <- f:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// next waits for the following frame, or for ctx to end.
func (r *Frames) next(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-r.ch:
			return frameMsg(f)
		case <-ctx.Done():
			return nil
		}
	}
}
