// Package main is the entry point for the hostkit CLI.
//
// hostkit drives the steps of host provisioning scripts: running commands
// with a controlled environment (locally or over SSH), editing profile
// blocks and YAML files, installing packages, finding free ports and
// waiting on containers. Every step honours --dry-run.
//
// For detailed usage information, run:
//
//	hostkit --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hostkit/cmd/hostkit/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
