package executor

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/hostkit/internal/ui/style"
)

const (
	dryRunPrefix  = "[dry-run] "
	commandPrefix = "> "
)

// echoer writes the human-facing trace of executed commands.
type echoer struct {
	w       io.Writer
	palette style.Palette
}

func newEchoer(w io.Writer) echoer {
	return echoer{w: w, palette: style.For(w)}
}

func (e echoer) command(cmd *Command, dryRun bool) {
	prefix, color := commandPrefix, style.ColorBlue
	if dryRun {
		prefix, color = dryRunPrefix, style.ColorYellow
	}
	if cmd.Color != "" {
		color = lipgloss.Color(cmd.Color)
	}
	e.line(prefix+cmd.Describe(), color)
}

func (e echoer) output(o *Outcome) {
	for _, line := range splitLines(o.Stdout) {
		e.line("  "+line, style.ColorDim)
	}
	for _, line := range splitLines(o.Stderr) {
		e.line("  "+line, style.ColorRed)
	}
}

func (e echoer) line(text string, color lipgloss.Color) {
	if e.w == nil {
		return
	}
	_, _ = fmt.Fprintln(e.w, e.palette.Color(text, color))
}

func splitLines(b []byte) []string {
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
