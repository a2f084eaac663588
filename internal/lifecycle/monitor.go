package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/imamik/hostkit/internal/executor"
	"github.com/imamik/hostkit/internal/metrics"
	"github.com/imamik/hostkit/internal/util/async"
)

// DefaultRuntime is the container runtime CLI used when none is configured.
const DefaultRuntime = "docker"

// State is the lifecycle state inferred from a status string.
type State int

const (
	StateUnknown State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StateFromStatus maps a runtime status string to a State.
func StateFromStatus(status string) State {
	if status == "running" {
		return StateRunning
	}
	return StateStopped
}

// Monitor polls container state through an Executor.
//
// Inspect commands only read state, so they run even when the context is a
// dry run. Kill honours the dry run.
type Monitor struct {
	exec    *executor.Executor
	ectx    *executor.Context
	runtime string
	logger  logr.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRuntime selects the container runtime CLI, e.g. "podman".
func WithRuntime(runtime string) Option {
	return func(m *Monitor) {
		if runtime != "" {
			m.runtime = runtime
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logr.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// NewMonitor returns a Monitor issuing commands through exec within ectx.
func NewMonitor(exec *executor.Executor, ectx *executor.Context, opts ...Option) *Monitor {
	m := &Monitor{
		exec:    exec,
		ectx:    ectx,
		runtime: DefaultRuntime,
		logger:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// queryContext is ectx with real execution forced on.
func (m *Monitor) queryContext() *executor.Context {
	q := *m.ectx
	q.ReallyExecute = true
	return &q
}

// IsRunning asks the runtime whether the container is running. It is true
// when the inspect command succeeds and prints "true".
func (m *Monitor) IsRunning(ctx context.Context, name string) (bool, error) {
	cmd := executor.Query(m.runtime, "inspect", "-f", "{{.State.Running}}", name).Quiet()
	out, err := m.exec.Execute(ctx, m.queryContext(), cmd)
	if err != nil {
		return false, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	return out.Success && out.TrimmedStdout() == "true", nil
}

// Status returns the container's lifecycle state. A failed query yields
// StateUnknown.
func (m *Monitor) Status(ctx context.Context, name string) State {
	cmd := executor.Query(m.runtime, "container", "inspect", "-f", "{{.State.Status}}", name).Quiet()
	out, err := m.exec.Execute(ctx, m.queryContext(), cmd)
	if err != nil || !out.Success {
		m.logger.V(1).Info("container status query failed", "container", name)
		return StateUnknown
	}
	state := StateFromStatus(out.TrimmedStdout())
	m.logger.V(1).Info("checked container status", "container", name, "state", state.String())
	return state
}

// QueryRunningState reports whether the container's status is exactly
// "running". Any failure counts as not running.
func (m *Monitor) QueryRunningState(ctx context.Context, name string) bool {
	return m.Status(ctx, name) == StateRunning
}

// WaitUntilRunning polls until the container runs. It performs exactly
// timeout/poll checks (rounded down), sleeping poll between checks, and
// returns false when none succeeded. Cancelling ctx ends the wait early with
// ctx.Err().
func (m *Monitor) WaitUntilRunning(ctx context.Context, name string, timeout, poll time.Duration) (bool, error) {
	return m.wait(ctx, name, StateRunning.String(), timeout, poll, func(running bool) bool { return running })
}

// WaitUntilStopped is the counterpart of WaitUntilRunning. Unknown counts
// as stopped.
func (m *Monitor) WaitUntilStopped(ctx context.Context, name string, timeout, poll time.Duration) (bool, error) {
	return m.wait(ctx, name, StateStopped.String(), timeout, poll, func(running bool) bool { return !running })
}

func (m *Monitor) wait(ctx context.Context, name, target string, timeout, poll time.Duration, reached func(running bool) bool) (bool, error) {
	if poll <= 0 {
		return false, fmt.Errorf("poll interval must be positive, got %s", poll)
	}
	checks := int(timeout / poll)
	m.logger.Info("waiting for container", "container", name, "target", target, "checks", checks, "poll", poll.String())

	for i := 0; i < checks; i++ {
		if reached(m.QueryRunningState(ctx, name)) {
			metrics.RecordWait(target, metrics.ResultSuccess)
			return true, nil
		}
		if i == checks-1 {
			break
		}
		if err := sleep(ctx, poll); err != nil {
			metrics.RecordWait(target, metrics.ResultError)
			return false, err
		}
	}

	metrics.RecordWait(target, metrics.ResultTimeout)
	return false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Advisory is the result of a best-effort operation: failures are recorded
// for inspection but never returned as errors.
type Advisory struct {
	failures *multierror.Error
}

// Failed reports whether any step failed.
func (a *Advisory) Failed() bool {
	return a != nil && a.failures.ErrorOrNil() != nil
}

// Failures returns the swallowed failures in the order they happened.
func (a *Advisory) Failures() []error {
	if a == nil || a.failures == nil {
		return nil
	}
	return a.failures.WrappedErrors()
}

// Err returns the failures joined into one error, or nil.
func (a *Advisory) Err() error {
	if a == nil {
		return nil
	}
	return a.failures.ErrorOrNil()
}

func (a *Advisory) record(err error) {
	a.failures = multierror.Append(a.failures, err)
}

func (a *Advisory) merge(other *Advisory) {
	for _, err := range other.Failures() {
		a.record(err)
	}
}

// Kill stops then removes the container. Failures of either step are
// recorded in the returned Advisory and never abort the caller.
func (m *Monitor) Kill(ctx context.Context, name string) *Advisory {
	advisory := &Advisory{}
	for _, step := range []string{"kill", "rm"} {
		cmd := executor.Build(m.runtime, step, name).Optional()
		out, err := m.exec.Execute(ctx, m.ectx, cmd)
		switch {
		case err != nil:
			advisory.record(fmt.Errorf("%s %s: %w", step, name, err))
		case !out.Success:
			advisory.record(fmt.Errorf("%s %s exited with code %d: %s", step, name, out.ExitCode, string(out.Stderr)))
		}
	}

	if advisory.Failed() {
		metrics.RecordCleanupFailures(len(advisory.Failures()))
		m.logger.Info("ignoring container cleanup failures", "container", name, "failures", advisory.Err().Error())
	}
	return advisory
}

// KillAll kills the named containers concurrently and merges their
// advisories.
func (m *Monitor) KillAll(ctx context.Context, names ...string) *Advisory {
	var (
		mu       sync.Mutex
		combined = &Advisory{}
	)

	tasks := make([]async.Task, 0, len(names))
	for _, name := range names {
		name := name
		tasks = append(tasks, async.Task{
			Name: name,
			Func: func(ctx context.Context) error {
				advisory := m.Kill(ctx, name)
				mu.Lock()
				combined.merge(advisory)
				mu.Unlock()
				return nil
			},
		})
	}

	// Kill never fails, so RunParallel has nothing to report.
	_ = async.RunParallel(ctx, tasks)
	return combined
}
