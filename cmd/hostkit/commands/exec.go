package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Exec returns the command that runs an arbitrary program through the
// executor.
//
// Flags:
//
//	--root: Run through the elevation program (default: sudo)
//	--fail: Report the command's output when it exits non-zero
//	--quiet: Do not echo the command line
//	--env, -e: KEY=VALUE set for this command only (repeatable)
//	--timeout: Kill the command after this long
func Exec() *cobra.Command {
	var (
		opts    handlers.ExecOptions
		envVars []string
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- PROGRAM [ARGS...]",
		Short: "Run a command with the configured environment",
		Long: `Run a command with the configured PATH entries and environment.

Examples:
  # Run as root
  hostkit exec --root -- systemctl restart ssh

  # Show what would run
  hostkit --dry-run exec -e GOFLAGS=-mod=mod -- go build ./...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvFlags(envVars)
			if err != nil {
				return err
			}
			opts.Env = env
			return run(cmd, func(e *handlers.Env) error {
				return handlers.Exec(cmd.Context(), e, args, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.AsRoot, "root", false, "Run through the elevation program")
	cmd.Flags().BoolVar(&opts.FailOnError, "fail", false, "Report output when the command exits non-zero")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Do not echo the command line")
	cmd.Flags().StringArrayVarP(&envVars, "env", "e", nil, "KEY=VALUE for this command only (repeatable)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Duration(0), "Kill the command after this long")

	return cmd
}

// Shell returns the command that runs a script with bash -c.
func Shell() *cobra.Command {
	return &cobra.Command{
		Use:   "shell SCRIPT",
		Short: "Run a script with bash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.Shell(cmd.Context(), env, args[0])
			})
		},
	}
}

func parseEnvFlags(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}
