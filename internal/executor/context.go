package executor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// OSReleasePath is the file read by ContextFromHost for OS parameters.
const OSReleasePath = "/etc/os-release"

// ErrEnvironment is returned when a required piece of the host environment
// (PATH, the home directory) is missing.
var ErrEnvironment = errors.New("environment failure")

// Context carries the per-run state shared by every command of one caller.
// It is not safe for concurrent mutation.
type Context struct {
	// ReallyExecute selects real execution; false means dry run.
	ReallyExecute bool

	// Vars overlays the inherited environment. Later writes win.
	Vars map[string]string

	// Paths are appended to the inherited PATH, in order.
	Paths []string

	// OSParams holds KEY=VALUE pairs from /etc/os-release.
	OSParams map[string]string

	// Arch is the machine hardware name, as printed by uname -m.
	Arch string

	baseEnv []string
}

// NewContext builds a Context from an explicit base environment and host
// snapshot. It never reads process state.
func NewContext(reallyExecute bool, baseEnv []string, osParams map[string]string, arch string) *Context {
	if osParams == nil {
		osParams = map[string]string{}
	}
	return &Context{
		ReallyExecute: reallyExecute,
		Vars:          map[string]string{},
		OSParams:      osParams,
		Arch:          arch,
		baseEnv:       append([]string(nil), baseEnv...),
	}
}

// ContextFromHost snapshots the process environment, /etc/os-release and the
// machine architecture. A missing os-release file yields empty OSParams.
func ContextFromHost(reallyExecute bool) (*Context, error) {
	osParams, err := ReadOSRelease(OSReleasePath)
	if err != nil {
		return nil, err
	}
	arch, err := hostArch()
	if err != nil {
		return nil, err
	}
	return NewContext(reallyExecute, os.Environ(), osParams, arch), nil
}

// AddToPath appends entries to the PATH used for commands.
func (c *Context) AddToPath(entries ...string) {
	c.Paths = append(c.Paths, entries...)
}

// AddToEnv sets an environment override for commands.
func (c *Context) AddToEnv(name, value string) {
	if c.Vars == nil {
		c.Vars = map[string]string{}
	}
	c.Vars[name] = value
}

// Getenv returns a variable from the overrides, falling back to the base
// environment.
func (c *Context) Getenv(name string) (string, bool) {
	if v, ok := c.Vars[name]; ok {
		return v, true
	}
	return lookupEnv(c.baseEnv, name)
}

// Environ returns the environment a command runs with: the base environment,
// then PATH rebuilt as the inherited value joined with the appended entries,
// then Vars, then extra. Later layers win. The inherited PATH must be set.
func (c *Context) Environ(extra map[string]string) ([]string, error) {
	inherited, ok := lookupEnv(c.baseEnv, "PATH")
	if !ok {
		return nil, fmt.Errorf("%w: PATH is not set", ErrEnvironment)
	}

	env := envMap(c.baseEnv)
	env["PATH"] = strings.Join(append([]string{inherited}, c.Paths...), ":")
	for k, v := range c.Vars {
		env[k] = v
	}
	for k, v := range extra {
		env[k] = v
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out, nil
}

// ReadOSRelease parses an os-release file. A missing file is not an error.
func ReadOSRelease(path string) (map[string]string, error) {
	// #nosec G304 - fixed system path or test fixture
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseOSRelease(bytes.NewReader(data))
}

// ParseOSRelease reads KEY=VALUE lines, splitting on the first '='. Lines
// without '=' are ignored and values are kept verbatim, quotes included.
func ParseOSRelease(r io.Reader) (map[string]string, error) {
	params := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		params[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse os-release: %w", err)
	}
	return params, nil
}

func hostArch() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("failed to read machine architecture: %w", err)
	}
	return unix.ByteSliceToString(uts.Machine[:]), nil
}

func lookupEnv(env []string, name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == name {
			value, found = v, true
		}
	}
	return value, found
}

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
