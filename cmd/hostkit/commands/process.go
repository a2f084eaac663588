package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Process returns the parent command for local process helpers.
func Process() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Find and kill local processes by command line",
	}

	var regex bool
	find := &cobra.Command{
		Use:   "find PATTERN...",
		Short: "List processes whose command line contains a pattern",
		Long: `List processes whose command line contains any of the patterns.
Arguments of a process are joined by single spaces before matching.

With --regex the patterns are regular expressions that must match the
whole command line, so "nginx" only matches a process named exactly
nginx while ".*nginx.*" matches "/usr/sbin/nginx -g daemon off;".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ProcessFind(env, args, regex)
			})
		},
	}
	find.Flags().BoolVar(&regex, "regex", false, "Treat patterns as full-match regular expressions")
	cmd.AddCommand(find)

	cmd.AddCommand(&cobra.Command{
		Use:   "kill SUBSTRING",
		Short: "Kill processes whose command line contains a substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.ProcessKill(env, args[0])
			})
		},
	})

	return cmd
}
