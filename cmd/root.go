package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/goplayer/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	engine     string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "goplayer",
		Short:         "A headless media player",
		Long:          "goplayer plays local files and network streams through a simulated pipeline or a Music Player Daemon.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Read configuration from this TOML file")
	root.PersistentFlags().StringVarP(&flags.engine, "engine", "e", "", "Media engine to use (sim or mpd)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newPlayCommand(flags),
		newProbeCommand(flags),
		newVersionCommand(),
	)
	return root
}

// loadSettings reads the configuration file and applies command-line overrides.
func (f *globalFlags) loadSettings() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if f.engine != "" {
		cfg.Engine.Kind = f.engine
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
