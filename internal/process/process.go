// Package process finds and kills local processes by command line.
package process

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/imamik/hostkit/internal/util/filter"
)

// DefaultProcRoot is where process information is read from.
const DefaultProcRoot = "/proc"

// Process is a running process and its command line, arguments joined by
// single spaces.
type Process struct {
	PID     int
	Command string
}

// Table reads processes from a procfs mount.
type Table struct {
	root string
	kill func(pid int) error
}

// NewTable returns a Table over DefaultProcRoot that kills with SIGKILL.
func NewTable() *Table {
	return NewTableAt(DefaultProcRoot)
}

// NewTableAt returns a Table reading the procfs mounted at root.
func NewTableAt(root string) *Table {
	return &Table{
		root: root,
		kill: func(pid int) error { return unix.Kill(pid, unix.SIGKILL) },
	}
}

// List returns every readable process with a non-empty command line, by
// ascending PID. Processes that exit during the scan are skipped.
func (t *Table) List() ([]Process, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.root, err)
	}

	var procs []Process
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(t.root, entry.Name(), "cmdline"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return nil, fmt.Errorf("failed to read command line of %d: %w", pid, err)
		}
		command := joinCmdline(data)
		if command == "" {
			continue
		}
		procs = append(procs, Process{PID: pid, Command: command})
	}

	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })
	return procs, nil
}

// Find returns the processes whose command line contains substring.
func (t *Table) Find(substring string) ([]Process, error) {
	return t.find(func(p Process) bool { return strings.Contains(p.Command, substring) })
}

// FindAny returns the processes whose command line contains any of
// substrings.
func (t *Table) FindAny(substrings ...string) ([]Process, error) {
	return t.find(func(p Process) bool {
		for _, s := range substrings {
			if strings.Contains(p.Command, s) {
				return true
			}
		}
		return false
	})
}

// FindMatching returns the processes whose command line passes set.
func (t *Table) FindMatching(set *filter.Set) ([]Process, error) {
	return t.find(func(p Process) bool { return set.Match(p.Command) })
}

func (t *Table) find(keep func(Process) bool) ([]Process, error) {
	procs, err := t.List()
	if err != nil {
		return nil, err
	}
	var matched []Process
	for _, p := range procs {
		if p.PID == os.Getpid() {
			continue
		}
		if keep(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Kill sends SIGKILL to every process whose command line contains
// substring. It stops at the first failure. The processes killed before the
// failure are returned either way.
func (t *Table) Kill(substring string) ([]Process, error) {
	procs, err := t.Find(substring)
	if err != nil {
		return nil, err
	}

	var killed []Process
	for _, p := range procs {
		if err := t.kill(p.PID); err != nil {
			return killed, fmt.Errorf("failed to kill process %d (%s): %w", p.PID, p.Command, err)
		}
		killed = append(killed, p)
	}
	return killed, nil
}

func joinCmdline(data []byte) string {
	data = bytes.TrimRight(data, "\x00")
	return string(bytes.ReplaceAll(data, []byte{0}, []byte{' '}))
}
