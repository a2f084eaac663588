package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Apt returns the parent command for apt package management. Every
// subcommand runs as root.
func Apt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apt",
		Short: "Manage apt packages and keyrings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Refresh the package index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.AptUpdate(cmd.Context(), env)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade all installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.AptUpgrade(cmd.Context(), env)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "install PACKAGE...",
		Short: "Install packages non-interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.AptInstall(cmd.Context(), env, args)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove PACKAGE...",
		Short: "Remove packages non-interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.AptRemove(cmd.Context(), env, args)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keyring URL NAME",
		Short: "Install a signing key into the apt keyring directory",
		Long: `Download an ASCII-armored signing key and de-armor it with gpg into
the keyring directory (keyringDir, default /etc/apt/keyrings).

URL may be http(s):// or s3://bucket/key. An existing keyring is kept.

Examples:
  hostkit apt keyring https://download.docker.com/linux/debian/gpg docker.gpg
  hostkit apt keyring s3://keys/internal.asc internal.gpg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.AptKeyring(cmd.Context(), env, args[0], args[1])
			})
		},
	})

	return cmd
}
