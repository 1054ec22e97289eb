package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/flow/debugger"
)

type debugOptions struct {
	*rootOptions
	Addr string
}

func (o *debugOptions) client() *debugger.Client {
	addr := o.Addr
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return debugger.NewClient(nil, addr)
}

func newDebugCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &debugOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Control a running flow",
		Long: `Pause, resume, inspect and set breakpoints on a flow started with
"flow serve".`,
	}

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "127.0.0.1:1880", "debug service address")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "pause",
			Short: "Stop delivery before the next queued message",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.client().Pause(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "resume",
			Short: "Resume delivery",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.client().Resume(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show router state and counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := opts.client().Status(cmd.Context())
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), opts.Format, status)
			},
		},
		newBreakCommand(opts),
	)

	return cmd
}

func newBreakCommand(opts *debugOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Manage breakpoints",
	}

	var bp debugger.Breakpoint
	add := &cobra.Command{
		Use:   "add",
		Short: "Stop before deliveries matching source, port and destination",
		Long: `Add a breakpoint. Omitted fields match anything.

Example:
  flow debug break add --source inject --destination sink`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.client().SetBreakpoint(cmd.Context(), bp)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	add.Flags().StringVar(&bp.Source, "source", "", "source node id")
	add.Flags().IntVar(&bp.Port, "port", debugger.AnyPort, "source output port (-1 for any)")
	add.Flags().StringVar(&bp.Destination, "destination", "", "destination node id")

	var all bool
	rm := &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a breakpoint, or every breakpoint with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				return opts.client().ClearBreakpoint(cmd.Context(), args[0])
			}
			n, err := opts.client().ClearBreakpoints(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)
			return err
		},
	}
	rm.Flags().BoolVar(&all, "all", false, "remove every breakpoint")

	toggle := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.client().EnableBreakpoint(cmd.Context(), args[0], enabled)
			},
		}
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List breakpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bps, err := opts.client().ListBreakpoints(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeOutput(cmd.OutOrStdout(), opts.Format, bps)
			}
			for _, b := range bps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s source=%q port=%d destination=%q enabled=%t hits=%d\n",
					b.ID, b.Source, b.Port, b.Destination, b.Enabled, b.Hits)
			}
			return nil
		},
	}

	cmd.AddCommand(
		add,
		rm,
		ls,
		toggle("enable", "Re-enable a breakpoint", true),
		toggle("disable", "Keep a breakpoint but stop matching it", false),
	)
	return cmd
}
