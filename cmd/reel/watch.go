package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/watcher"
)

var (
	watchOutput   string
	watchDebounce time.Duration
	watchPoll     bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output file (.svg, .png, or .html)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounceDuration, "Quiet period before re-rendering")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll for changes instead of using filesystem notifications")
	watchCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(watchCmd)
}

// WatchEvent is printed once per render in JSON mode.
type WatchEvent struct {
	Output   string         `json:"output"`
	Ticks    int            `json:"ticks"`
	Entities int            `json:"entities"`
	Report   dataset.Report `json:"report"`
	Error    string         `json:"error,omitempty"`
}

var watchCmd = &cobra.Command{
	Use:   "watch <dataset-file>",
	Short: "Re-render whenever the dataset file changes",
	Long: `Render the dataset, then re-run the layout and re-render each time the
file is written. A change that fails to parse is reported and the last
good output is kept. Stops on interrupt.

Examples:
  reel watch films.json -o films.svg
  reel watch films.json -o films.html --poll`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitDataError, "dataset file: %v", err)
	}
	cfg := mustLoadConfig(cmd)
	opts := renderOptions()
	ctx := cmd.Context()

	e := engine.New(engine.WithLogger(logger))
	defer e.Dispose()

	var mu sync.Mutex
	rerender := func() {
		mu.Lock()
		defer mu.Unlock()

		ev := WatchEvent{Output: watchOutput}
		ds, err := loadDataset(path, cfg)
		if err == nil {
			ev.Entities = len(ds.Entities)
			ev.Report, err = e.Init(ds, cfg, cfg.Viewport)
		}
		if err == nil {
			ev.Ticks, err = e.RunUntilSettled(ctx, 0)
		}
		if err == nil {
			err = writeOutput(watchOutput, e.Snapshot(), e.Config(), ds.Entities, opts)
		}
		if err != nil {
			ev.Error = err.Error()
			logger.Warn("render failed", "path", path, "error", err)
		} else {
			logger.Info("rendered", "output", watchOutput, "ticks", ev.Ticks)
		}
		reportWatch(ev)
	}

	rerender()

	w, err := watcher.New(path,
		watcher.WithDebounceDuration(watchDebounce),
		watcher.WithForcePoll(watchPoll),
		watcher.WithLogger(logger),
		watcher.WithOnChange(rerender),
		watcher.WithOnError(func(err error) {
			logger.Warn("watch error", "path", path, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Stop()

	if humanOutput {
		mode := "notifications"
		if w.IsPolling() {
			mode = "polling"
		}
		fmt.Fprintf(os.Stderr, "%s %s (%s), Ctrl-C to stop\n", subtleColor.Sprint("watching"), path, mode)
	}
	<-ctx.Done()
	return nil
}

func reportWatch(ev WatchEvent) {
	if !humanOutput {
		outputJSON(ev)
		return
	}
	if ev.Error != "" {
		warnColor.Fprintf(os.Stderr, "! %s\n", ev.Error)
		return
	}
	printReportHuman(ev.Report)
	fmt.Printf("%s %s %s\n", time.Now().Format("15:04:05"), goodColor.Sprint("rendered"), ev.Output)
}
