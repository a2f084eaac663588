package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/hostkit/internal/executor"
)

// ExecOptions shapes a single command run by Exec.
type ExecOptions struct {
	AsRoot      bool
	FailOnError bool
	Quiet       bool
	Env         map[string]string
	Timeout     time.Duration
}

// ErrCommandFailed is returned by Exec when the command exits non-zero.
var ErrCommandFailed = errors.New("command failed")

// Exec runs argv through the executor and streams its captured output.
func Exec(ctx context.Context, env *Env, argv []string, opts ExecOptions) error {
	if len(argv) == 0 {
		return fmt.Errorf("no command given")
	}

	var cmd *executor.Command
	if opts.AsRoot {
		cmd = executor.AsRootWith(env.Config.Elevation, argv...)
	} else {
		cmd = executor.Build(argv[0], argv[1:]...)
	}
	for k, v := range opts.Env {
		cmd.WithEnv(k, v)
	}
	if opts.Timeout > 0 {
		cmd.WithTimeout(opts.Timeout)
	}
	if opts.Quiet {
		cmd.Quiet()
	}
	if opts.FailOnError {
		cmd.MustSucceed()
	}

	out, err := env.Exec.Execute(ctx, env.Context, cmd)
	if err != nil {
		return err
	}
	if out.DryRun {
		return nil
	}

	_, _ = env.Out.Write(out.Stdout)
	_, _ = env.ErrOut.Write(out.Stderr)
	if !out.Success {
		return fmt.Errorf("%w: exit code %d", ErrCommandFailed, out.ExitCode)
	}
	return nil
}
