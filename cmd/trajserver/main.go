// Command trajserver serves the COVID-19 death trajectory dashboard and exports
// its chart headlessly.
//
// Subcommands:
//
//	serve       HTTP dashboard (page, chart PNG, JSON API)
//	render      write the chart for a selection as PNG, or one PNG per country
//	countries   list the countries in the dataset with their row counts
//	config init write the default configuration as YAML
//
// Settings come from an optional YAML file (--config), TRAJ_* environment
// variables, and finally command-line flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iafilius/DeathTrajectories/src/config"
	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/logging"
)

type rootOptions struct {
	configPath string
	dataPath   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "trajserver",
		Short:         "COVID-19 death trajectories by country",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "trajectories.yaml", "Path to YAML config (optional)")
	root.PersistentFlags().StringVar(&opts.dataPath, "data", "", "Path to the deaths CSV (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides config")

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newCountriesCmd(opts),
		newConfigCmd(),
	)
	return root
}

// loadConfig applies config file, env, then flags, and sets the log level.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataPath != "" {
		cfg.DataPath = o.dataPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	logging.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

func (o *rootOptions) loadAll() (*config.Config, *dataset.Dataset, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ds, nil
}

func main() {
	defer logging.Sync()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logging.Sync()
		os.Exit(1)
	}
}
