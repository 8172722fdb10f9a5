package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/reelgraph/internal/engine"
)

// SequenceOptions configures WriteSequence.
type SequenceOptions struct {
	Options

	// Dir receives one file per frame, named frame-NNNNN.<format>.
	Dir    string
	Format Format

	// Workers bounds concurrent encoders. Zero means GOMAXPROCS.
	Workers int
}

// FramePath returns the file name of the frame at tick in dir.
func FramePath(dir string, tick int, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("frame-%05d.%s", tick, format))
}

// WriteSequence encodes frames to individual files in parallel and returns
// their paths in frame order. The first failure cancels remaining work.
func WriteSequence(ctx context.Context, frames []engine.Frame, opts SequenceOptions) ([]string, error) {
	switch opts.Format {
	case FormatSVG, FormatPNG, FormatHTML:
	default:
		return nil, fmt.Errorf("unsupported output format %q", opts.Format)
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	paths := make([]string, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range frames {
		paths[i] = FramePath(opts.Dir, f.Tick, opts.Format)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return SaveFile(paths[i], f, opts.Options)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
