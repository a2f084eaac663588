package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Port returns the parent command for TCP port helpers.
func Port() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Find free ports and wait for listeners",
	}

	cmd.AddCommand(portFind())
	cmd.AddCommand(portWait())

	return cmd
}

// portFind returns the command that prints a free port.
//
// Flags:
//
//	--from: First port to consider (default: 8000)
//	--window: Number of start ports to try (default: 1000)
//	--count: Number of consecutive free ports required (default: 1)
func portFind() *cobra.Command {
	var from, window, count int

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the first available port",
		Long: `Print the first port that can be bound on this host.

The result is advisory: nothing is reserved, so bind it right away.

Examples:
  # First free port from 8000
  hostkit port find

  # Three consecutive free ports between 9000 and 9099
  hostkit port find --from 9000 --window 100 --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.PortFind(env, from, window, count)
			})
		},
	}

	cmd.Flags().IntVar(&from, "from", 8000, "First port to consider")
	cmd.Flags().IntVar(&window, "window", 1000, "Number of start ports to try")
	cmd.Flags().IntVar(&count, "count", 1, "Number of consecutive free ports required")

	return cmd
}

// portWait returns the command that blocks until a port accepts
// connections.
func portWait() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait HOST PORT",
		Short: "Wait until a TCP port accepts connections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[1], err)
			}
			return run(cmd, func(env *handlers.Env) error {
				return handlers.PortWait(cmd.Context(), env, args[0], port, timeout)
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait (default: HOSTKIT_PORT_WAIT or 30s)")

	return cmd
}
