package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apparentlymart/go-shquot/shquot"
)

// DefaultElevation is the program AsRoot prefixes to its arguments.
const DefaultElevation = "sudo"

// Necessity tells the caller whether a command's failure should abort the
// surrounding flow. The Executor records it but does not act on it.
type Necessity int

const (
	Mandatory Necessity = iota
	Optional
)

func (n Necessity) String() string {
	switch n {
	case Mandatory:
		return "mandatory"
	case Optional:
		return "optional"
	default:
		return fmt.Sprintf("necessity(%d)", int(n))
	}
}

// Effect tells the caller whether a command changes the system or only
// inspects it.
type Effect int

const (
	Imperative Effect = iota
	Interrogative
)

func (e Effect) String() string {
	switch e {
	case Imperative:
		return "imperative"
	case Interrogative:
		return "interrogative"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Command is a program invocation plus the options that shape how the
// Executor runs it. Option methods mutate the command and return it so they
// can be chained.
type Command struct {
	Program string
	Args    []string

	Necessity Necessity
	Effect    Effect

	// Env overlays the context environment for this command only.
	Env map[string]string

	// Input is written to the child's stdin.
	Input []byte

	// Silent suppresses the command echo.
	Silent bool

	// LogOutput echoes captured stdout and stderr after the command exits.
	LogOutput bool

	// FailOnError turns a non-zero exit into an *ExecutionFailure.
	FailOnError bool

	// Timeout bounds the run. Zero falls back to the executor default.
	Timeout time.Duration

	// Color overrides the echo color (a lipgloss color string).
	Color string
}

// Build returns a mandatory, imperative command.
func Build(program string, args ...string) *Command {
	return &Command{
		Program:   program,
		Args:      args,
		Necessity: Mandatory,
		Effect:    Imperative,
	}
}

// AsRoot returns a mandatory, imperative command run through sudo.
func AsRoot(args ...string) *Command {
	return AsRootWith(DefaultElevation, args...)
}

// AsRootWith is AsRoot with an explicit elevation program.
func AsRootWith(elevation string, args ...string) *Command {
	return Build(elevation, args...)
}

// Query returns an optional, interrogative command.
func Query(program string, args ...string) *Command {
	return Build(program, args...).Optional().Interrogative()
}

func (c *Command) WithEnv(name, value string) *Command {
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	c.Env[name] = value
	return c
}

func (c *Command) WithInput(input []byte) *Command {
	c.Input = input
	return c
}

func (c *Command) WithTimeout(d time.Duration) *Command {
	c.Timeout = d
	return c
}

func (c *Command) WithColor(color string) *Command {
	c.Color = color
	return c
}

func (c *Command) Quiet() *Command {
	c.Silent = true
	return c
}

func (c *Command) ShowOutput() *Command {
	c.LogOutput = true
	return c
}

func (c *Command) MustSucceed() *Command {
	c.FailOnError = true
	return c
}

func (c *Command) Mandatory() *Command {
	c.Necessity = Mandatory
	return c
}

func (c *Command) Optional() *Command {
	c.Necessity = Optional
	return c
}

func (c *Command) Imperative() *Command {
	c.Effect = Imperative
	return c
}

func (c *Command) Interrogative() *Command {
	c.Effect = Interrogative
	return c
}

// Argv returns the program followed by its arguments.
func (c *Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// Describe renders the command as a single shell line, prefixed by its own
// environment overrides in key order. The context environment is omitted.
func (c *Command) Describe() string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, k+"="+shquot.POSIXShell([]string{c.Env[k]}))
	}
	parts = append(parts, shquot.POSIXShell(c.Argv()))
	return strings.Join(parts, " ")
}

func (c *Command) String() string {
	return c.Describe()
}
