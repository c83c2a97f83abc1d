package main

import (
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine"
	"github.com/Carmen-Shannon/oxy-mol/engine/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	headless   bool
	profile    bool
	width      int
	height     int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "molview",
		Short:         "View molecular structures and animated scenes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	flags.BoolVar(&opts.headless, "headless", false, "render off-screen without a window")
	flags.BoolVar(&opts.profile, "profile", false, "log frame statistics once per second")
	flags.IntVar(&opts.width, "width", 0, "window width in pixels; overrides the config")
	flags.IntVar(&opts.height, "height", 0, "window height in pixels; overrides the config")

	cmd.AddCommand(newViewCommand(opts), newDemoCommand(opts))
	return cmd
}

// loadConfig reads the config file, if any, and applies the command-line overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.headless {
		cfg.Window.Headless = true
	}
	if o.profile {
		cfg.Viewer.Profiling = true
	}
	if o.width > 0 {
		cfg.Window.Width = o.width
	}
	if o.height > 0 {
		cfg.Window.Height = o.height
	}
	return cfg, cfg.Validate()
}

// newEngine builds the engine and installs a text logger at the configured level.
func (o *rootOptions) newEngine() (engine.Engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: common.ParseLogLevel(cfg.LogLevel)}))
	return engine.NewEngine(engine.WithConfig(cfg), engine.WithLogger(logger))
}
