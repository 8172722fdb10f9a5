package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/storage"
)

// Force override flags, applied on top of the resolved config.
var (
	linkDistance     float64
	chargeStrength   float64
	collisionRadius  float64
	positionStrength float64
)

func addForceFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&linkDistance, "link-distance", 0, "Override forces.link_distance")
	fs.Float64Var(&chargeStrength, "charge", 0, "Override forces.charge_strength")
	fs.Float64Var(&collisionRadius, "collide", 0, "Override forces.collision_radius")
	fs.Float64Var(&positionStrength, "position", 0, "Override forces.position_strength")
}

// forcePartial collects the force flags the user actually set.
func forcePartial(cmd *cobra.Command) config.Partial {
	var p config.Partial
	flags := cmd.Flags()
	if flags.Changed("link-distance") {
		p.LinkDistance = &linkDistance
	}
	if flags.Changed("charge") {
		p.ChargeStrength = &chargeStrength
	}
	if flags.Changed("collide") {
		p.CollisionRadius = &collisionRadius
	}
	if flags.Changed("position") {
		p.PositionStrength = &positionStrength
	}
	return p
}

// mustLoadConfig resolves the layout config and applies force overrides, or exits.
func mustLoadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if p := forcePartial(cmd); !p.IsEmpty() {
		cfg.Forces = cfg.Forces.Apply(p)
		if err := cfg.Validate(); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
	}
	return cfg
}

func decodeOptions(cfg *config.Config) dataset.DecodeOptions {
	opts := dataset.DefaultDecodeOptions()
	if len(cfg.Dataset.AnchorKinds) > 0 {
		opts.AnchorKinds = cfg.Dataset.AnchorKinds
	}
	if len(cfg.Dataset.CentralityFields) > 0 {
		opts.CentralityFields = cfg.Dataset.CentralityFields
	}
	return opts
}

// loadDataset reads ref as a dataset file, or as a catalog name when no
// such file exists.
func loadDataset(ref string, cfg *config.Config) (*dataset.Dataset, error) {
	if st, err := os.Stat(ref); err == nil && !st.IsDir() {
		f, err := os.Open(ref)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return dataset.Decode(f, decodeOptions(cfg))
	}
	if err := storage.ValidateName(ref); err != nil {
		return nil, errors.New("no such dataset file or catalog name: " + ref)
	}
	cat, err := storage.OpenCatalog(config.CatalogDir())
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	return cat.Load(ref)
}

// mustLoadDataset loads a dataset or exits with a data error.
func mustLoadDataset(ref string, cfg *config.Config) *dataset.Dataset {
	ds, err := loadDataset(ref, cfg)
	if err != nil {
		exitWithError(ExitDataError, "loading dataset %s: %v", ref, err)
	}
	return ds
}

// mustInitEngine builds an engine over ds, or exits. The load report is
// printed in human mode.
func mustInitEngine(ds *dataset.Dataset, cfg *config.Config, opts ...engine.Option) *engine.Engine {
	e := engine.New(append([]engine.Option{engine.WithLogger(logger)}, opts...)...)
	report, err := e.Init(ds, cfg, config.Viewport{})
	if err != nil {
		exitWithError(ExitDataError, "initializing layout: %v", err)
	}
	if humanOutput {
		printReportHuman(report)
	}
	return e
}
