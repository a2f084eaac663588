// Package executor runs external commands on behalf of provisioning scripts.
//
// A Context describes the run: whether commands really execute, extra PATH
// entries, environment overrides and a snapshot of the host OS. A Command is
// a program plus arguments and per-command options. The Executor either
// describes the command (dry run) or runs it through a Runner, capturing
// stdout and stderr in full.
//
// Commands always run to completion from the caller's point of view. A
// context deadline or a per-command timeout kills the child process.
package executor
