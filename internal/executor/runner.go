package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// processWaitDelay bounds how long a killed child may hold its output pipes.
const processWaitDelay = 2 * time.Second

// Invocation is a fully prepared command handed to a Runner.
type Invocation struct {
	Program string
	Args    []string

	// Env is the complete environment for a local child.
	Env []string

	// Overrides are the variables set on top of the inherited environment,
	// and Paths the entries appended to its PATH. Remote runners use these
	// instead of Env.
	Overrides map[string]string
	Paths     []string

	Stdin []byte
}

// Runner runs one invocation to completion. A non-zero exit is reported in
// the Outcome, not as an error; errors mean the command could not be run or
// was interrupted.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Outcome, error)
}

// LocalRunner runs commands as child processes of the current process.
type LocalRunner struct{}

func (LocalRunner) Run(ctx context.Context, inv Invocation) (*Outcome, error) {
	path, err := lookPath(inv.Program, inv.Env)
	if err != nil {
		return nil, err
	}

	// #nosec G204 - running caller-supplied commands is the purpose of this package
	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Args[0] = inv.Program
	cmd.Env = inv.Env
	cmd.WaitDelay = processWaitDelay
	if inv.Stdin != nil {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	outcome := &Outcome{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		outcome.ExitCode = -1
		return outcome, fmt.Errorf("%s interrupted: %w", inv.Program, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		outcome.Success = true
	case errors.As(err, &exitErr):
		outcome.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("failed to start %s: %w", inv.Program, err)
	}
	return outcome, nil
}

// lookPath resolves program against the PATH found in env rather than the
// PATH of the current process.
func lookPath(program string, env []string) (string, error) {
	if strings.Contains(program, "/") {
		if err := checkExecutable(program); err != nil {
			return "", &exec.Error{Name: program, Err: err}
		}
		return program, nil
	}

	pathVar, _ := lookupEnv(env, "PATH")
	for _, dir := range filepath.SplitList(pathVar) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, program)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: program, Err: exec.ErrNotFound}
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return os.ErrPermission
	}
	return nil
}
