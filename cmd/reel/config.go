package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/reelgraph/internal/config"
)

var (
	configWrite string
	configShow  bool
)

func init() {
	configCmd.Flags().StringVar(&configWrite, "write", "", "Write the effective layout config as YAML to this path")
	configCmd.Flags().BoolVar(&configShow, "show", false, "Print the effective layout config as YAML")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set global configuration values, or inspect the layout config.

Usage:
  reel config                              # Show all global config
  reel config catalog-path                 # Get specific value
  reel config default-config ~/reel.yml    # Set value
  reel config --show --charge -60          # Print the effective layout config
  reel config --write reel.yml             # Save it as a starting point

Keys:
  default-config  Layout config used when --config is not given
  catalog-path    Directory holding the dataset catalog`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configShow || configWrite != "" {
		if len(args) > 0 {
			exitWithError(ExitError, "--show and --write take no arguments")
		}
		return runLayoutConfig(cmd)
	}

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		values := make(map[string]string)
		for _, k := range config.GlobalKeys() {
			v, _ := cfg.Get(k)
			values[k] = v
		}
		values["catalog_dir"] = config.CatalogDir()
		if humanOutput {
			for _, k := range config.GlobalKeys() {
				fmt.Printf("%-15s %s\n", strings.ReplaceAll(k, "_", "-")+":", values[k])
			}
			fmt.Printf("%-15s %s\n", "catalog-dir:", subtleColor.Sprint(values["catalog_dir"]))
		} else {
			outputJSON(values)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := cfg.Set(key, value); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	if key == "default_config" && value != "" {
		if _, err := config.Load(value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
	}
	if err := config.SaveGlobalConfig(cfg); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", args[0], value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// runLayoutConfig prints or saves the resolved layout config.
func runLayoutConfig(cmd *cobra.Command) error {
	cfg := mustLoadConfig(cmd)
	if configWrite != "" {
		if err := cfg.Save(config.ExpandPath(configWrite)); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Printf("Wrote layout config to %s\n", configWrite)
		} else {
			outputJSON(StatusResponse{Status: "written", Path: configWrite})
		}
		return nil
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

// normalizeKey converts key formats (catalog-path, catalog_path, Catalog-Path) to the stored form
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "-", "_")
}
