package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Container returns the parent command for container lifecycle helpers.
func Container() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Inspect, wait for and kill containers",
		Long: `Inspect, wait for and kill containers through the configured runtime
(docker by default, see containerRuntime in hostkit.yaml).

Status queries run even with --dry-run; kill only prints what it would do.`,
	}

	cmd.AddCommand(containerStatus())
	cmd.AddCommand(containerWait())
	cmd.AddCommand(containerKill())
	cmd.AddCommand(containerImage())

	return cmd
}

func containerStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME...",
		Short: "Print the state of containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ContainerStatus(cmd.Context(), env, args...)
			})
		},
	}
}

// containerWait returns the command that polls until a container reaches a
// state.
//
// Flags:
//
//	--for: Target state, running or stopped (default: running)
//	--timeout: Wait budget (default: HOSTKIT_WAIT_TIMEOUT or 60s)
//	--poll: Interval between checks (default: HOSTKIT_POLL_INTERVAL or 1s)
func containerWait() *cobra.Command {
	var (
		target  string
		timeout time.Duration
		poll    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait NAME",
		Short: "Wait until a container is running or stopped",
		Long: `Wait until a container is running or stopped.

The container is checked timeout/poll times, with poll between checks.

Examples:
  # Wait up to a minute for the database to come up
  hostkit container wait postgres

  # Wait for a job container to exit, checking every 5s for 10m
  hostkit container wait migrate --for stopped --timeout 10m --poll 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ContainerWait(cmd.Context(), env, args[0], target, timeout, poll)
			})
		},
	}

	cmd.Flags().StringVar(&target, "for", "running", "Target state: running or stopped")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wait budget (default: HOSTKIT_WAIT_TIMEOUT or 60s)")
	cmd.Flags().DurationVar(&poll, "poll", 0, "Interval between checks (default: HOSTKIT_POLL_INTERVAL or 1s)")

	return cmd
}

func containerKill() *cobra.Command {
	return &cobra.Command{
		Use:   "kill NAME...",
		Short: "Kill and remove containers, ignoring failures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ContainerKill(cmd.Context(), env, args...)
			})
		},
	}
}

func containerImage() *cobra.Command {
	return &cobra.Command{
		Use:   "image REF",
		Short: "Split an image reference into repository and tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ContainerImage(env, args[0])
			})
		},
	}
}
