// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

const (
	flagConfig      = "config"
	flagDryRun      = "dry-run"
	flagVerbosity   = "verbose"
	flagMetricsFile = "metrics-file"
)

// Root returns the root command for the hostkit CLI.
//
// Global flags select the configuration file, dry-run mode, log verbosity
// and an optional Prometheus textfile written when a command finishes.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hostkit",
		Short:         "Provision development hosts and containers from scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP(flagConfig, "c", "", "Path to configuration file (default: hostkit.yaml)")
	flags.Bool(flagDryRun, false, "Print commands instead of running them")
	flags.IntP(flagVerbosity, "v", 0, "Log verbosity (0 = info, higher is chattier)")
	flags.String(flagMetricsFile, "", "Write Prometheus metrics to this file on exit")

	// Host and container commands
	cmd.AddCommand(Port())
	cmd.AddCommand(Container())
	cmd.AddCommand(Process())

	// Provisioning commands
	cmd.AddCommand(Exec())
	cmd.AddCommand(Shell())
	cmd.AddCommand(Apt())
	cmd.AddCommand(Profile())
	cmd.AddCommand(GcloudCopy())

	// Configuration artifacts
	cmd.AddCommand(Block())
	cmd.AddCommand(Doc())

	// Utility commands
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// globalOptions reads the root's persistent flags as seen by cmd.
func globalOptions(cmd *cobra.Command) (handlers.Options, error) {
	var opts handlers.Options
	var err error
	flags := cmd.Flags()

	if opts.ConfigPath, err = flags.GetString(flagConfig); err != nil {
		return opts, err
	}
	if opts.DryRun, err = flags.GetBool(flagDryRun); err != nil {
		return opts, err
	}
	if opts.Verbosity, err = flags.GetInt(flagVerbosity); err != nil {
		return opts, err
	}
	if opts.MetricsFile, err = flags.GetString(flagMetricsFile); err != nil {
		return opts, err
	}
	return opts, nil
}

// run sets up the handler environment for cmd, calls fn and flushes the
// environment. The handler's error takes precedence over a flush error.
func run(cmd *cobra.Command, fn func(env *handlers.Env) error) error {
	opts, err := globalOptions(cmd)
	if err != nil {
		return err
	}
	env, err := handlers.Setup(cmd.Context(), opts)
	if err != nil {
		return err
	}

	runErr := fn(env)
	if err := env.Finish(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
