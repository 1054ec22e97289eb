package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/flow/kernel"
)

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flow with the debug service until interrupted",
		Long: `Deploy the flow and serve the debug control plane: the Connect debug
service and the websocket event stream. Stops on SIGINT or SIGTERM.

Example:
  flow serve -c flow.yaml --addr 127.0.0.1:1880`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Debugger.Addr = addr
			}

			k, err := kernel.New(cfg, kernel.WithLogger(rootOpts.logger))
			if err != nil {
				return err
			}

			rootOpts.logger.Info(
				"serving flow",
				slog.String("flow", cfg.Flow.Name),
				slog.String("addr", cfg.Debugger.Addr),
				slog.String("stream", cfg.Debugger.StreamPath),
			)
			return k.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
