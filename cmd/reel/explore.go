package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/clipboard"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/tui"
	"github.com/matsen/reelgraph/internal/watcher"
)

var exploreWatch bool

func init() {
	exploreCmd.Flags().BoolVar(&exploreWatch, "watch", false, "Reload when the dataset file changes")
	rootCmd.AddCommand(exploreCmd)
}

var exploreCmd = &cobra.Command{
	Use:   "explore <dataset>",
	Short: "Explore the layout interactively in the terminal",
	Long: `Open an interactive terminal view of the live layout.

Mouse:
  drag an entity    move it (anchors move vertically only)
  drag the canvas   pan
  click an entity   select it and show its details
  wheel             zoom about the pointer

Keys:
  c      copy the selected entity as JSON
  r      reset the view
  + / -  zoom, arrows pan
  l / L  link distance down / up by 10
  g / G  charge strength down / up by 10
  o / O  collision radius down / up by 5
  p / P  position strength down / up by 0.05
  space  hold the layout warm, press again to let it settle
  esc    clear the selection
  q      quit`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	ref := args[0]
	cfg := mustLoadConfig(cmd)
	ds := mustLoadDataset(ref, cfg)
	frames := tui.NewFrames()
	e := mustInitEngine(ds, cfg, engine.WithOnTick(frames.Publish))
	defer e.Dispose()

	if !clipboard.IsAvailable() {
		logger.Warn("no clipboard utility found; copy will fail")
	}
	p := tea.NewProgram(tui.New(e,
		tui.WithTitle("reel "+filepath.Base(ref)),
		tui.WithLoop(cmd.Context(), frames),
	),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)

	if exploreWatch {
		if _, err := os.Stat(ref); err != nil {
			exitWithError(ExitDataError, "--watch needs a dataset file: %v", err)
		}
		w, err := watcher.New(ref,
			watcher.WithLogger(logger),
			watcher.WithOnChange(func() {
				next, err := loadDataset(ref, cfg)
				if err != nil {
					logger.Warn("reload failed", "path", ref, "error", err)
					return
				}
				p.Send(tui.ReloadMsg{Dataset: next})
			}),
		)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		if err := w.Start(cmd.Context()); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Stop()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running explorer: %w", err)
	}
	return nil
}
