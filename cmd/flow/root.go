package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/observability"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Format     string

	logger *slog.Logger
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run and debug dataflow graphs",
		Long: `flow deploys a graph of nodes from a YAML file and routes messages
between them, with breakpoints, pause/resume and per-message tracing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			opts.logger = newLogger(opts.LogLevel, opts.LogFormat, cmd.ErrOrStderr())
			observability.RegisterObserver("slog", observability.NewSlogObserver(opts.logger))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "flow.yaml", "path to flow configuration")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newDebugCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadAndValidate(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
