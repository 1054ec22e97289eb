package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/flow/graph"
	"github.com/tailored-agentic-units/flow/observability"
)

func newValidateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a flow file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			if names := observability.ObserverNames(); !slices.Contains(names, cfg.Router.Observer) {
				return fmt.Errorf("unknown observer %q (registered: %s)", cfg.Router.Observer, strings.Join(names, ", "))
			}

			for _, n := range cfg.Flow.Nodes {
				if _, err := graph.GetType(n.Type); err != nil {
					return fmt.Errorf("node %s: %w", n.ID, err)
				}
			}

			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]any{
				"flow":  cfg.Flow.Name,
				"nodes": len(cfg.Flow.Nodes),
				"valid": true,
			})
		},
	}
}
