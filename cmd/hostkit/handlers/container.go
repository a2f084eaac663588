package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/hostkit/internal/lifecycle"
)

// ErrWaitTimedOut is returned when a container did not reach the target
// state within the wait budget.
var ErrWaitTimedOut = errors.New("container did not reach the target state in time")

// ContainerStatus prints the lifecycle state of each container.
func ContainerStatus(ctx context.Context, env *Env, names ...string) error {
	for _, name := range names {
		env.printf("%s\t%s\n", name, env.Monitor.Status(ctx, name))
	}
	return nil
}

// ContainerWait waits for a container to reach target ("running" or
// "stopped"). Zero durations use the configured timeouts.
func ContainerWait(ctx context.Context, env *Env, name, target string, timeout, poll time.Duration) error {
	if timeout == 0 {
		timeout = env.Timeouts.Wait
	}
	if poll == 0 {
		poll = env.Timeouts.Poll
	}

	var wait func(context.Context, string, time.Duration, time.Duration) (bool, error)
	switch target {
	case lifecycle.StateRunning.String():
		wait = env.Monitor.WaitUntilRunning
	case lifecycle.StateStopped.String():
		wait = env.Monitor.WaitUntilStopped
	default:
		return fmt.Errorf("unknown target state %q, want running or stopped", target)
	}

	reached, err := wait(ctx, name, timeout, poll)
	if err != nil {
		return err
	}
	if !reached {
		return fmt.Errorf("%w: %s not %s after %s", ErrWaitTimedOut, name, target, timeout)
	}
	env.printf("%s is %s\n", name, target)
	return nil
}

// ContainerKill kills and removes the containers. Cleanup failures are
// reported as warnings and never fail the command.
func ContainerKill(ctx context.Context, env *Env, names ...string) error {
	advisory := env.Monitor.KillAll(ctx, names...)
	for _, failure := range advisory.Failures() {
		env.warnf("%v\n", failure)
	}
	return nil
}

// ContainerImage prints the repository and tag of an image reference.
func ContainerImage(env *Env, ref string) error {
	image, err := lifecycle.ParseImage(ref)
	if err != nil {
		return fmt.Errorf("%w: %s", err, ref)
	}
	env.printf("base:    %s\nversion: %s\n", image.BaseURL, image.Version)
	return nil
}
