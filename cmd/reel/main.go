// Package main provides the reel CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// LogLevelEnv is consulted when --log-level is not given.
const LogLevelEnv = "REEL_LOG_LEVEL"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	configPath  string
	logger      = logging.Discard()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reel",
	Short: "Timeline force layout for entity graphs",
	Long: `reel lays out graphs whose anchor entities sit on a horizontal timeline
by year while satellite entities settle around them under link, charge,
collision, and positional forces.

Core features:
  - Headless layout to JSON or an NDJSON frame stream
  - SVG, PNG, and self-contained HTML rendering
  - Live re-rendering when the dataset file changes
  - Interactive terminal explorer with drag, zoom, pan, and select
  - A local dataset catalog with year-range and entity queries

All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if env := os.Getenv(LogLevelEnv); env != "" {
				level = env
			}
		}
		logger = logging.NewLogger(level, os.Stderr)
		slog.SetDefault(logger)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error (env "+LogLevelEnv+")")
	pf.StringVar(&configPath, "config", "", "Layout config file (.yml or .toml); defaults to the global default_config")
	addForceFlags(pf)
	rootCmd.Version = Version
}
