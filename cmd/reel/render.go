package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/render"
)

var (
	renderOutput   string
	renderEvery    int
	renderMaxTicks int
	renderWorkers  int
	renderNoLegend bool
	renderNoAxis   bool
	renderTitle    string
)

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (.svg, .png, or .html)")
	renderCmd.Flags().IntVar(&renderEvery, "every", 0, "Also write every Nth frame to a directory named after the output")
	renderCmd.Flags().IntVar(&renderMaxTicks, "max-ticks", 0, "Stop after this many ticks (0 = until settled)")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", 0, "Concurrent frame encoders for --every (0 = one per CPU)")
	renderCmd.Flags().BoolVar(&renderNoLegend, "no-legend", false, "Omit the legend")
	renderCmd.Flags().BoolVar(&renderNoAxis, "no-axis", false, "Omit the timeline axis")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "Legend title")
	renderCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(renderCmd)
}

// RenderResponse reports the files written by render.
type RenderResponse struct {
	Output  string   `json:"output"`
	Ticks   int      `json:"ticks"`
	Settled bool     `json:"settled"`
	Frames  []string `json:"frames,omitempty"`
}

var renderCmd = &cobra.Command{
	Use:   "render <dataset>",
	Short: "Render the settled layout to SVG, PNG, or HTML",
	Long: `Run the layout to completion and render the final frame.

The format follows the output extension. HTML output is a single
self-contained page with wheel zoom, drag-to-pan, and a details panel.

With --every N, every Nth tick (and the final tick) is also written to
<output without extension>/frame-NNNNN.<ext>, encoded in parallel.

Examples:
  reel render films.json -o films.svg
  reel render hitchcock -o hitchcock.html --title "Hitchcock"
  reel render films.json -o anim/films.png --every 5`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func renderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Legend = !renderNoLegend
	opts.Axis = !renderNoAxis
	opts.Title = renderTitle
	return opts
}

// writeOutput renders f to path, with the entity table for HTML pages.
func writeOutput(path string, f engine.Frame, cfg config.Config, ents []dataset.Entity, opts render.Options) error {
	format, err := render.FormatFromPath(path)
	if err != nil {
		return err
	}
	if format != render.FormatHTML {
		return render.SaveFile(path, f, opts)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	html, err := render.GenerateHTML(f, render.HTMLOptions{
		Options:  opts,
		Entities: ents,
		MinScale: cfg.Zoom.MinScale,
		MaxScale: cfg.Zoom.MaxScale,
	})
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := render.FormatFromPath(renderOutput)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if renderEvery < 0 {
		exitWithError(ExitError, "--every must be positive")
	}

	cfg := mustLoadConfig(cmd)
	ds := mustLoadDataset(args[0], cfg)

	var frames []engine.Frame
	var opts []engine.Option
	if renderEvery > 0 {
		opts = append(opts, engine.WithOnTick(func(_ context.Context, f engine.Frame) {
			if f.Tick%renderEvery == 0 || f.Settled {
				frames = append(frames, f)
			}
		}))
	}
	e := mustInitEngine(ds, cfg, opts...)
	defer e.Dispose()

	ticks, err := e.RunUntilSettled(cmd.Context(), renderMaxTicks)
	if err != nil {
		return fmt.Errorf("running layout: %w", err)
	}
	final := e.Snapshot()
	if n := len(frames); renderEvery > 0 && (n == 0 || frames[n-1].Tick != final.Tick) {
		frames = append(frames, final)
	}

	ropts := renderOptions()
	if err := writeOutput(renderOutput, final, e.Config(), ds.Entities, ropts); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	resp := RenderResponse{Output: renderOutput, Ticks: ticks, Settled: final.Settled}
	if renderEvery > 0 {
		dir := strings.TrimSuffix(renderOutput, filepath.Ext(renderOutput))
		paths, err := render.WriteSequence(cmd.Context(), frames, render.SequenceOptions{
			Options: ropts,
			Dir:     dir,
			Format:  format,
			Workers: renderWorkers,
		})
		if err != nil {
			return fmt.Errorf("writing frames: %w", err)
		}
		resp.Frames = paths
	}

	if humanOutput {
		fmt.Printf("%s %s (%d ticks)\n", goodColor.Sprint("Rendered"), renderOutput, ticks)
		if len(resp.Frames) > 0 {
			fmt.Printf("  %d frames in %s\n", len(resp.Frames), filepath.Dir(resp.Frames[0]))
		}
		return nil
	}
	return outputJSON(resp)
}
