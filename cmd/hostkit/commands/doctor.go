package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Doctor returns the command for checking the host.
//
// Optional flags:
//
//	--json: Output in JSON format
func Doctor() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the host for the tools hostkit drives",
		Long: `Check the host for the tools hostkit drives.

Shows the operating system, architecture and container runtime, and
whether sudo, apt, gpg, the runtime and optional tools are installed.
Exits non-zero when a required tool is missing.

Examples:
  hostkit doctor
  hostkit doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.Doctor(env, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
