package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/hostkit/internal/metrics"
)

// Policy may veto a command before it runs. It sees dry runs too.
type Policy func(ectx *Context, cmd *Command) error

// Executor runs Commands within a Context.
type Executor struct {
	runner         Runner
	logger         logr.Logger
	echo           echoer
	defaultTimeout time.Duration
	policy         Policy
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner replaces the LocalRunner.
func WithRunner(r Runner) Option {
	return func(e *Executor) {
		e.runner = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logr.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithEcho sets where command echoes go. Output is styled when w is a
// terminal. A nil writer disables echoing.
func WithEcho(w io.Writer) Option {
	return func(e *Executor) {
		e.echo = newEchoer(w)
	}
}

// WithDefaultTimeout bounds commands that carry no timeout of their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.defaultTimeout = d
	}
}

// WithPolicy installs a Policy consulted before every command.
func WithPolicy(p Policy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// New returns an Executor running commands locally and echoing to stdout.
func New(opts ...Option) *Executor {
	e := &Executor{
		runner: LocalRunner{},
		logger: logr.Discard(),
		echo:   newEchoer(os.Stdout),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Remote reports whether commands run on another host. Runners opt in by
// implementing Remote() bool.
func (e *Executor) Remote() bool {
	r, ok := e.runner.(interface{ Remote() bool })
	return ok && r.Remote()
}

// Execute runs cmd, or only describes it when ectx is a dry run.
//
// A non-zero exit is returned as a normal Outcome unless cmd.FailOnError is
// set, in which case the error is an *ExecutionFailure carrying the outcome.
// Failure to start the program, a missing PATH, a policy veto and a timeout
// are returned as errors.
func (e *Executor) Execute(ctx context.Context, ectx *Context, cmd *Command) (*Outcome, error) {
	program := filepath.Base(cmd.Program)
	desc := cmd.Describe()

	if e.policy != nil {
		if err := e.policy(ectx, cmd); err != nil {
			return nil, fmt.Errorf("command %q rejected: %w", desc, err)
		}
	}

	if !ectx.ReallyExecute {
		e.echo.command(cmd, true)
		e.logger.V(1).Info("dry run", "command", desc,
			"necessity", cmd.Necessity.String(), "effect", cmd.Effect.String())
		metrics.RecordCommand(program, metrics.ResultDryRun, 0)
		return &Outcome{Success: true, DryRun: true}, nil
	}

	env, err := ectx.Environ(cmd.Env)
	if err != nil {
		return nil, err
	}

	if !cmd.Silent {
		e.echo.command(cmd, false)
	}

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = e.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e.logger.V(1).Info("executing command", "command", desc,
		"necessity", cmd.Necessity.String(), "effect", cmd.Effect.String())

	start := time.Now()
	outcome, err := e.runner.Run(ctx, Invocation{
		Program:   cmd.Program,
		Args:      cmd.Args,
		Env:       env,
		Overrides: overrides(ectx.Vars, cmd.Env),
		Paths:     ectx.Paths,
		Stdin:     cmd.Input,
	})
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordCommand(program, metrics.ResultError, elapsed.Seconds())
		e.logger.Error(err, "command did not complete", "command", desc)
		return outcome, fmt.Errorf("failed to execute %q: %w", desc, err)
	}
	outcome.Duration = elapsed

	result := metrics.ResultSuccess
	if !outcome.Success {
		result = metrics.ResultFailure
	}
	metrics.RecordCommand(program, result, elapsed.Seconds())

	e.logger.V(1).Info("command finished", "command", desc,
		"exitCode", outcome.ExitCode, "duration", elapsed.String())

	if cmd.LogOutput {
		e.echo.output(outcome)
	}

	if !outcome.Success && cmd.FailOnError {
		return outcome, &ExecutionFailure{Command: cmd, Outcome: outcome}
	}
	return outcome, nil
}

func overrides(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
