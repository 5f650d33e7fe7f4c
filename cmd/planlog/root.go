package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juliosaraiva/planlog/internal/config"
	"github.com/juliosaraiva/planlog/internal/logging"
)

// app carries the state shared by subcommands once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "planlog",
		Short:         "Extract and aggregate planner run statistics",
		Long:          "planlog parses planner run logs into typed attribute records\nand aggregates the records of many runs into report tables.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "YAML config file (defaults built in)")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(newParseCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newFormatsCmd())
	return root
}

// init loads the config and builds the logger; flags override the file.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
