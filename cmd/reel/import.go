package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/storage"
)

var importName string

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "Catalog name (default: file name without extension)")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func mustOpenCatalog() *storage.Catalog {
	cat, err := storage.OpenCatalog(config.CatalogDir())
	if err != nil {
		exitWithError(ExitDataError, "opening catalog: %v", err)
	}
	return cat
}

var importCmd = &cobra.Command{
	Use:   "import <dataset-file>",
	Short: "Add a dataset file to the catalog",
	Long: `Import a dataset file into the local catalog so it can be referenced
by name and queried. Importing under an existing name replaces it.

Examples:
  reel import films.json
  reel import ~/data/hitchcock.json --name hitchcock`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := importName
	if name == "" {
		name = storage.NameFromPath(path)
	}
	if err := storage.ValidateName(name); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig(cmd)
	ds := mustLoadDataset(path, cfg)

	cat := mustOpenCatalog()
	defer cat.Close()
	res, err := cat.Import(name, ds)
	if err != nil {
		return fmt.Errorf("importing dataset: %w", err)
	}

	if humanOutput {
		fmt.Printf("%s %s: %d entities, %d relations\n", goodColor.Sprint("Imported"), res.Dataset, res.Entities, res.Relations)
		if res.Skipped > 0 {
			warnColor.Printf("  skipped %d invalid or duplicate entities\n", res.Skipped)
		}
		return nil
	}
	return outputJSON(res)
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a dataset from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := mustOpenCatalog()
		defer cat.Close()
		if err := cat.Remove(args[0]); err != nil {
			exitWithError(ExitDataError, "removing %s: %v", args[0], err)
		}
		if humanOutput {
			fmt.Printf("Removed %s\n", args[0])
			return nil
		}
		return outputJSON(StatusResponse{Status: "removed"})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := mustOpenCatalog()
		defer cat.Close()
		infos, err := cat.List()
		if err != nil {
			return fmt.Errorf("listing datasets: %w", err)
		}
		if !humanOutput {
			if infos == nil {
				infos = []storage.DatasetInfo{}
			}
			return outputJSON(infos)
		}
		if len(infos) == 0 {
			fmt.Println("No datasets. Add one with reel import.")
			return nil
		}
		for _, d := range infos {
			fmt.Printf("%-24s %6d entities %6d relations\n", truncateString(d.Name, 24), d.Entities, d.Relations)
		}
		return nil
	},
}

// RebuildResponse reports a catalog index rebuild.
type RebuildResponse struct {
	Status   string `json:"status"`
	Datasets int    `json:"datasets"`
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog query index from the dataset files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := mustOpenCatalog()
		defer cat.Close()
		n, err := cat.Rebuild()
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		if humanOutput {
			fmt.Printf("Rebuilt index: %d datasets\n", n)
			return nil
		}
		return outputJSON(RebuildResponse{Status: "rebuilt", Datasets: n})
	},
}
