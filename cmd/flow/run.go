package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/flow/kernel"
	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/router"
)

type runOptions struct {
	*rootOptions
	From    string
	Payload string
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inject one message and wait for the flow to drain",
		Long: `Deploy the flow, emit one message as if the --from node produced it,
wait until every resulting delivery is handled, and print router metrics.

Example:
  flow run -c flow.yaml --from inject --payload '{"value": 1}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "node that emits the message (required)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "message payload as a JSON object")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runFlow(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	msg, err := messaging.FromJSON([]byte(opts.Payload))
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	k, err := kernel.New(cfg, kernel.WithLogger(opts.logger))
	if err != nil {
		return err
	}
	defer k.Stop(cfg.Debugger.ShutdownTimeout)

	result, err := k.Run(cmd.Context(), opts.From, msg)
	if err != nil && !errors.Is(err, router.ErrPaused) {
		return err
	}

	out := map[string]any{
		"correlation_id": result.CorrelationID,
		"sends":          result.Metrics.Sends,
		"enqueued":       result.Metrics.Enqueued,
		"delivered":      result.Metrics.Delivered,
		"dropped":        result.Metrics.Dropped,
		"intercepted":    result.Metrics.Intercepted,
		"paused":         errors.Is(err, router.ErrPaused),
	}
	if opts.Format == "json" {
		out["nodes"] = result.Nodes
		if len(result.Trace) > 0 {
			out["trace"] = result.Trace
		}
	}

	return writeOutput(cmd.OutOrStdout(), opts.Format, out)
}
