package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/render"
)

var (
	layoutStream   bool
	layoutFull     bool
	layoutMaxTicks int
)

func init() {
	layoutCmd.Flags().BoolVar(&layoutStream, "stream", false, "Emit one NDJSON frame per tick instead of the final positions")
	layoutCmd.Flags().BoolVar(&layoutFull, "full", false, "With --stream, include styles and links in each frame")
	layoutCmd.Flags().IntVar(&layoutMaxTicks, "max-ticks", 0, "Stop after this many ticks (0 = until settled)")
	rootCmd.AddCommand(layoutCmd)
}

// LayoutResponse is the final layout of a dataset.
type LayoutResponse struct {
	Ticks   int                 `json:"ticks"`
	Alpha   float64             `json:"alpha"`
	Settled bool                `json:"settled"`
	Nodes   []render.StreamNode `json:"nodes"`
	Report  dataset.Report      `json:"report"`
}

var layoutCmd = &cobra.Command{
	Use:   "layout <dataset>",
	Short: "Run the layout headlessly and print positions",
	Long: `Run the timeline layout to completion and print node positions.

The dataset is a JSON file with "entities" and "relations", or the name of
a dataset in the catalog (see reel import).

Examples:
  reel layout films.json
  reel layout films.json --stream > frames.ndjson
  reel layout hitchcock --max-ticks 100 --charge -60`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(cmd)
	ds := mustLoadDataset(args[0], cfg)

	var opts []engine.Option
	var stream *render.Stream
	var streamErr error
	if layoutStream {
		stream = render.NewStream(os.Stdout, layoutFull)
		opts = append(opts, engine.WithOnTick(func(_ context.Context, f engine.Frame) {
			if streamErr == nil {
				streamErr = stream.Write(f)
			}
		}))
	}
	e := mustInitEngine(ds, cfg, opts...)
	defer e.Dispose()

	ticks, err := e.RunUntilSettled(cmd.Context(), layoutMaxTicks)
	if err != nil {
		return fmt.Errorf("running layout: %w", err)
	}
	if streamErr != nil {
		return fmt.Errorf("writing frame stream: %w", streamErr)
	}
	logger.Info("layout finished", "ticks", ticks, "alpha", e.Alpha())
	if stream != nil {
		return nil
	}

	f := e.Snapshot()
	if humanOutput {
		state := warnColor.Sprint("not settled")
		if f.Settled {
			state = goodColor.Sprint("settled")
		}
		fmt.Printf("%s %d ticks, alpha %.4f, %s\n", brandColor.Sprint("reel"), ticks, f.Alpha, state)
		for _, n := range f.Nodes {
			fmt.Printf("  %-24s %9.1f %9.1f  %s\n", truncateString(n.ID, 24), n.X, n.Y, subtleColor.Sprint(n.Pin))
		}
		return nil
	}
	return outputJSON(LayoutResponse{
		Ticks:   ticks,
		Alpha:   f.Alpha,
		Settled: f.Settled,
		Nodes:   render.Compact(f).Nodes,
		Report:  e.Report(),
	})
}
