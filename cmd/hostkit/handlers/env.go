package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/hostkit/internal/config"
	"github.com/imamik/hostkit/internal/executor"
	"github.com/imamik/hostkit/internal/fetch"
	"github.com/imamik/hostkit/internal/lifecycle"
	"github.com/imamik/hostkit/internal/logging"
	"github.com/imamik/hostkit/internal/metrics"
	"github.com/imamik/hostkit/internal/process"
	"github.com/imamik/hostkit/internal/provision"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath  string
	DryRun      bool
	Verbosity   int
	MetricsFile string
}

// Env is everything a handler needs to run.
type Env struct {
	Config   *config.Config
	Timeouts *config.Timeouts
	Logger   logr.Logger

	Context *executor.Context
	Exec    *executor.Executor
	Monitor *lifecycle.Monitor
	Session *provision.Session
	Procs   *process.Table
	Fetcher fetch.Fetcher

	Out    io.Writer
	ErrOut io.Writer

	// Metrics is the textfile written by Finish, if set.
	Metrics string
}

// Setup loads configuration and snapshots the host into an Env. It is the
// only place hostkit reads the process environment.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, opts.Verbosity)

	ectx, err := executor.ContextFromHost(!opts.DryRun)
	if err != nil {
		return nil, err
	}

	runner, err := newRunner(cfg.Remote)
	if err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(ctx, cfg.S3, logger)
	if err != nil {
		return nil, err
	}

	env := Build(cfg, config.LoadTimeouts(), ectx, runner, fetcher, logger, os.Stdout, os.Stderr)
	env.Metrics = opts.MetricsFile
	return env, nil
}

// Build assembles an Env from already prepared parts.
func Build(
	cfg *config.Config,
	timeouts *config.Timeouts,
	ectx *executor.Context,
	runner executor.Runner,
	fetcher fetch.Fetcher,
	logger logr.Logger,
	out, errOut io.Writer,
) *Env {
	ectx.AddToPath(cfg.Paths...)
	for k, v := range cfg.Env {
		ectx.AddToEnv(k, v)
	}

	exec := executor.New(
		executor.WithRunner(runner),
		executor.WithLogger(logger.WithName("executor")),
		executor.WithEcho(out),
		executor.WithDefaultTimeout(timeouts.Command),
	)

	return &Env{
		Config:   cfg,
		Timeouts: timeouts,
		Logger:   logger,
		Context:  ectx,
		Exec:     exec,
		Monitor: lifecycle.NewMonitor(exec, ectx,
			lifecycle.WithRuntime(cfg.ContainerRuntime),
			lifecycle.WithLogger(logger.WithName("lifecycle")),
		),
		Session: provision.NewSession(exec, ectx, provision.Options{
			Elevation:    cfg.Elevation,
			MarkerPrefix: cfg.MarkerPrefix,
			Profile:      cfg.Profile,
			KeyringDir:   cfg.KeyringDir,
			Fetcher:      fetcher,
			Logger:       logger.WithName("provision"),
		}),
		Procs:   process.NewTable(),
		Fetcher: fetcher,
		Out:     out,
		ErrOut:  errOut,
	}
}

// Finish flushes end-of-run output such as the metrics textfile.
func (e *Env) Finish() error {
	if e.Metrics == "" {
		return nil
	}
	if err := metrics.WriteTextfile(e.Metrics); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", e.Metrics, err)
	}
	return nil
}

func newRunner(remote config.RemoteConfig) (executor.Runner, error) {
	if !remote.Enabled() {
		return executor.LocalRunner{}, nil
	}
	keyPath, err := expandHome(remote.KeyPath)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - key path comes from the operator's config
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}
	return executor.NewSSHRunner(&executor.SSHConfig{
		Host:       remote.Host,
		Port:       remote.Port,
		User:       remote.User,
		PrivateKey: key,
	})
}

func newFetcher(ctx context.Context, s3cfg config.S3Config, logger logr.Logger) (fetch.Fetcher, error) {
	mux := fetch.NewMux().Handle(fetch.NewHTTPFetcher(logger), "http", "https")

	creds := config.LoadS3Credentials()
	s3, err := fetch.NewS3Fetcher(ctx, fetch.S3Options{
		Endpoint:  s3cfg.Endpoint,
		Region:    s3cfg.Region,
		AccessKey: creds.AccessKey,
		SecretKey: creds.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return mux.Handle(s3, "s3"), nil
}

func expandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return home + path[1:], nil
}

// printf writes to the Env's output, ignoring write errors like fmt.Printf.
func (e *Env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.Out, format, args...)
}

// warnf reports a non-fatal problem on the error stream.
func (e *Env) warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.ErrOut, "warning: "+format, args...)
}
