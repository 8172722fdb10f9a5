package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/matsen/reelgraph/internal/dataset"
)

// Human output colours.
var (
	goodColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	subtleColor = color.New(color.FgHiBlack)
	brandColor  = color.New(color.FgHiMagenta, color.Bold)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	return encodeJSON(os.Stdout, v)
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// printReportHuman lists the recoveries made while loading a dataset.
func printReportHuman(r dataset.Report) {
	for _, d := range r.DroppedEntities {
		warnColor.Fprintf(os.Stderr, "! dropped entity %q: %s\n", d.ID, d.Reason)
	}
	for _, d := range r.DroppedRelations {
		warnColor.Fprintf(os.Stderr, "! dropped relation %s -> %s (%s): %s\n",
			d.Relation.SourceID, d.Relation.TargetID, d.Relation.Role, d.Reason)
	}
	for _, id := range r.MissingYears {
		warnColor.Fprintf(os.Stderr, "! anchor %q has no usable year; placed at the timeline midpoint\n", id)
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
