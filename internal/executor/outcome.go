package executor

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of one command. Dry runs produce a synthetic
// successful outcome with DryRun set and no output.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Success  bool
	DryRun   bool
	Duration time.Duration
}

// TrimmedStdout returns stdout as a string with surrounding whitespace
// removed.
func (o *Outcome) TrimmedStdout() string {
	if o == nil {
		return ""
	}
	return string(bytes.TrimSpace(o.Stdout))
}

// ExecutionFailure reports a command that exited non-zero while
// FailOnError was set.
type ExecutionFailure struct {
	Command *Command
	Outcome *Outcome
}

func (e *ExecutionFailure) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "command %q exited with code %d", e.Command.Describe(), e.Outcome.ExitCode)
	if out := strings.TrimSpace(string(e.Outcome.Stdout)); out != "" {
		fmt.Fprintf(&sb, "\nstdout: %s", out)
	}
	if out := strings.TrimSpace(string(e.Outcome.Stderr)); out != "" {
		fmt.Fprintf(&sb, "\nstderr: %s", out)
	}
	return sb.String()
}
