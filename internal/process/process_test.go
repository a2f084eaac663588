package process

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hostkit/internal/util/filter"
)

// fakeProc lays out a procfs-like tree with the given command lines.
func fakeProc(t *testing.T, cmdlines map[int]string) string {
	t.Helper()
	root := t.TempDir()
	for pid, cmdline := range cmdlines {
		dir := filepath.Join(root, strconv.Itoa(pid))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644))
	}
	// Non-process entries are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sys"), 0o755))
	return root
}

func newFakeTable(t *testing.T, cmdlines map[int]string, kill func(int) error) *Table {
	return &Table{root: fakeProc(t, cmdlines), kill: kill}
}

func TestList(t *testing.T) {
	t.Parallel()
	table := newFakeTable(t, map[int]string{
		300: "anvil\x00--port\x008545\x00",
		12:  "/usr/bin/dockerd\x00",
		7:   "",
	}, nil)

	procs, err := table.List()
	require.NoError(t, err)
	assert.Equal(t, []Process{
		{PID: 12, Command: "/usr/bin/dockerd"},
		{PID: 300, Command: "anvil --port 8545"},
	}, procs)
}

func TestFind(t *testing.T) {
	t.Parallel()
	table := newFakeTable(t, map[int]string{
		10: "anvil\x00--port\x008545\x00",
		11: "anvil\x00--port\x008546\x00",
		12: "sshd\x00",
	}, nil)

	procs, err := table.Find("--port 854")
	require.NoError(t, err)
	assert.Len(t, procs, 2)

	procs, err = table.Find("nothing")
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestFindAny(t *testing.T) {
	t.Parallel()
	table := newFakeTable(t, map[int]string{
		10: "/usr/sbin/nginx\x00-g\x00daemon off;\x00",
		11: "anvil\x00--port\x008545\x00",
		12: "sshd\x00",
	}, nil)

	procs, err := table.FindAny("nginx", "anvil")
	require.NoError(t, err)
	assert.Equal(t, []Process{
		{PID: 10, Command: "/usr/sbin/nginx -g daemon off;"},
		{PID: 11, Command: "anvil --port 8545"},
	}, procs)
}

func TestFindMatching(t *testing.T) {
	t.Parallel()
	table := newFakeTable(t, map[int]string{
		10: "anvil\x00--port\x008545\x00",
		12: "sshd\x00",
	}, nil)

	set, err := filter.New("sshd")
	require.NoError(t, err)

	procs, err := table.FindMatching(set)
	require.NoError(t, err)
	assert.Equal(t, []Process{{PID: 12, Command: "sshd"}}, procs)
}

func TestKill(t *testing.T) {
	t.Parallel()
	var killed []int
	table := newFakeTable(t, map[int]string{
		10: "anvil\x00a\x00",
		11: "anvil\x00b\x00",
		12: "sshd\x00",
	}, func(pid int) error {
		killed = append(killed, pid)
		return nil
	})

	procs, err := table.Kill("anvil")
	require.NoError(t, err)
	assert.Len(t, procs, 2)
	assert.Equal(t, []int{10, 11}, killed)
}

func TestKill_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	denied := errors.New("operation not permitted")
	var attempts int
	table := newFakeTable(t, map[int]string{
		10: "anvil\x00",
		11: "anvil\x00",
	}, func(pid int) error {
		attempts++
		return denied
	})

	procs, err := table.Kill("anvil")
	assert.ErrorIs(t, err, denied)
	assert.Empty(t, procs)
	assert.Equal(t, 1, attempts)
}

func TestList_MissingRoot(t *testing.T) {
	t.Parallel()
	table := NewTableAt(filepath.Join(t.TempDir(), "missing"))

	_, err := table.List()
	assert.Error(t, err)
}

func TestNewTable_ListsSelf(t *testing.T) {
	t.Parallel()
	if _, err := os.Stat(DefaultProcRoot); err != nil {
		t.Skip("no procfs")
	}

	procs, err := NewTable().List()
	require.NoError(t, err)

	var found bool
	for _, p := range procs {
		if p.PID == os.Getpid() {
			found = true
		}
	}
	assert.True(t, found)
}
