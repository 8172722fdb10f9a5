package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/storage"
)

var (
	queryFrom   int
	queryTo     int
	queryEntity string
	queryOutput string
)

func init() {
	queryCmd.Flags().IntVar(&queryFrom, "from", 0, "Keep anchors from this year (0 = unbounded)")
	queryCmd.Flags().IntVar(&queryTo, "to", 0, "Keep anchors up to this year (0 = unbounded)")
	queryCmd.Flags().StringVar(&queryEntity, "entity", "", "Restrict to this entity and its direct neighbours")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "Write the subgraph to a file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Extract a subgraph of a catalog dataset",
	Long: `Select a subgraph of a catalog dataset by anchor year range and/or
entity neighbourhood. Satellites are kept when related to a kept anchor.
The result is dataset JSON, so it can be fed back to layout or render.

Examples:
  reel query hitchcock --from 1950 --to 1960 -o fifties.json
  reel query hitchcock --entity grant | reel layout /dev/stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryFrom != 0 && queryTo != 0 && queryFrom > queryTo {
		exitWithError(ExitError, "--from %d is after --to %d", queryFrom, queryTo)
	}

	cat := mustOpenCatalog()
	defer cat.Close()

	sub, err := cat.Query(storage.Query{
		Dataset:  args[0],
		YearFrom: queryFrom,
		YearTo:   queryTo,
		Entity:   queryEntity,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			exitWithError(ExitDataError, "%v", err)
		}
		return fmt.Errorf("querying %s: %w", args[0], err)
	}

	if queryOutput != "" {
		if err := writeDatasetJSON(queryOutput, sub); err != nil {
			return err
		}
		if humanOutput {
			fmt.Printf("Wrote %d entities, %d relations to %s\n", len(sub.Entities), len(sub.Relations), queryOutput)
			return nil
		}
		return outputJSON(StatusResponse{Status: "written", Path: queryOutput})
	}

	if humanOutput {
		for _, ent := range sub.Entities {
			year := ""
			if ent.Year != nil {
				year = fmt.Sprint(*ent.Year)
			}
			fmt.Printf("%-10s %-24s %-5s %s\n", ent.Kind, truncateString(ent.ID, 24), year, subtleColor.Sprint(ent.Label))
		}
		fmt.Printf("%d entities, %d relations\n", len(sub.Entities), len(sub.Relations))
		return nil
	}
	return outputJSON(sub)
}

func writeDatasetJSON(path string, ds *dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if err := encodeJSON(f, ds); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
