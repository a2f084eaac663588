package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Profile returns the parent command for the user's shell profile.
func Profile() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage marked blocks in the shell profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "append ID [LINE...]",
		Short: "Write a marked block into the shell profile",
		Long: `Write LINEs as the block ID into the shell profile (profile, default
~/.bashrc). The block is delimited by marker lines and replaced in place
on every run, so repeating the command changes nothing.

Examples:
  hostkit profile append go 'export PATH=$PATH:/usr/local/go/bin'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.Profile(env, args[0], args[1:])
			})
		},
	})

	return cmd
}

// GcloudCopy returns the command that copies files to a Compute Engine
// instance through IAP.
func GcloudCopy() *cobra.Command {
	var project, zone string

	cmd := &cobra.Command{
		Use:   "gcloud-copy SRC DST",
		Short: "Copy files to a Compute Engine instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.GcloudCopy(cmd.Context(), env, project, zone, args[0], args[1])
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Google Cloud project")
	cmd.Flags().StringVar(&zone, "zone", "", "Compute Engine zone")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("zone")

	return cmd
}
