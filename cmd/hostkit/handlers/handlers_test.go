package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hostkit/internal/executor"
	"github.com/imamik/hostkit/internal/mutator"
	"github.com/imamik/hostkit/internal/process"
	"github.com/imamik/hostkit/internal/provision"
	"github.com/imamik/hostkit/internal/ui/style"
	"github.com/imamik/hostkit/internal/util/prerequisites"
)

func TestPortFind(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	require.NoError(t, PortFind(env.Env, 42000, 500, 1))

	port, err := strconv.Atoi(strings.TrimSpace(env.out.String()))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 42000)
	assert.Less(t, port, 42500)
}

func TestPortFind_InvalidRange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	assert.Error(t, PortFind(env.Env, 0, 10, 1))
	assert.Error(t, PortFind(env.Env, 42000, 10, 0))
}

func TestContainerStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(inv executor.Invocation) (*executor.Outcome, error) {
		if inv.Args[len(inv.Args)-1] == "web" {
			return &executor.Outcome{Success: true, Stdout: []byte("running\n")}, nil
		}
		return &executor.Outcome{ExitCode: 1, Stderr: []byte("no such container")}, nil
	}

	require.NoError(t, ContainerStatus(context.Background(), env.Env, "web", "db"))
	assert.Equal(t, "web\trunning\ndb\tunknown\n", env.out.String())
}

func TestContainerStatus_DryRunStillQueries(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{Success: true, Stdout: []byte("exited\n")}, nil
	}

	require.NoError(t, ContainerStatus(context.Background(), env.Env, "web"))
	assert.Equal(t, "web\tstopped\n", env.out.String())
	assert.Len(t, env.runner.calls, 1)
}

func TestContainerWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		status  string
		wantErr error
		wantOut string
	}{
		{name: "running reached", target: "running", status: "running", wantOut: "web is running\n"},
		{name: "stopped reached", target: "stopped", status: "exited", wantOut: "web is stopped\n"},
		{name: "running timed out", target: "running", status: "created", wantErr: ErrWaitTimedOut},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, true)
			env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
				return &executor.Outcome{Success: true, Stdout: []byte(tt.status + "\n")}, nil
			}

			err := ContainerWait(context.Background(), env.Env, "web", tt.target, 0, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, env.runner.calls, 5, "configured wait of 5ms at 1ms polls")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, env.out.String())
		})
	}
}

func TestContainerWait_UnknownTarget(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	err := ContainerWait(context.Background(), env.Env, "web", "paused", time.Second, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target state")
	assert.Empty(t, env.runner.calls)
}

func TestContainerKill_WarnsOnFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(inv executor.Invocation) (*executor.Outcome, error) {
		if inv.Args[0] == "kill" {
			return &executor.Outcome{ExitCode: 1, Stderr: []byte("not running")}, nil
		}
		return &executor.Outcome{Success: true}, nil
	}

	require.NoError(t, ContainerKill(context.Background(), env.Env, "web"))
	assert.Equal(t, []string{"docker kill web", "docker rm web"}, env.runner.argvs())
	assert.Contains(t, env.errOut.String(), "warning: kill web exited with code 1")
}

func TestContainerImage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	require.NoError(t, ContainerImage(env.Env, "ghcr.io/acme/tool"))
	assert.Equal(t, "base:    ghcr.io/acme/tool\nversion: latest\n", env.out.String())
}

func TestBlockApply(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	path := filepath.Join(env.home, ".bashrc")

	require.NoError(t, BlockApply(env.Env, path, "nvm", []string{"export NVM_DIR=$HOME/.nvm"}))
	require.NoError(t, BlockApply(env.Env, path, "nvm", []string{"export NVM_DIR=$HOME/.nvm"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\n# hostkit_auto begin nvm\nexport NVM_DIR=$HOME/.nvm\n# hostkit_auto end nvm\n", string(data))
}

func TestBlockApply_DryRunDoesNotWrite(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	path := filepath.Join(env.home, ".bashrc")

	require.NoError(t, BlockApply(env.Env, path, "nvm", []string{"export A=1"}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, env.out.String(), "[dry-run] would write "+path)
	assert.Contains(t, env.out.String(), "# hostkit_auto begin nvm\nexport A=1\n")
}

func TestDocInsertGetFlatten(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	path := filepath.Join(t.TempDir(), "values.yaml")

	require.NoError(t, DocInsert(env.Env, path, []string{"server", "tls"}, "enabled", "true"))
	require.NoError(t, DocInsert(env.Env, path, []string{"server"}, "port", "443"))

	env.out.Reset()
	require.NoError(t, DocGet(env.Env, path, []string{"server", "tls"}))
	assert.Equal(t, "enabled: \"true\"\n", env.out.String())

	env.out.Reset()
	require.NoError(t, DocFlatten(env.Env, path))
	assert.Equal(t, "server.tls.enabled: \"true\"\nserver.port: \"443\"\n", env.out.String())
}

func TestDocInsert_DryRun(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	path := filepath.Join(t.TempDir(), "values.yaml")

	require.NoError(t, DocInsert(env.Env, path, []string{"a"}, "b", "c"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "[dry-run] would write "+path+":\na:\n  b: c\n", env.out.String())
}

func TestDocInsert_Mismatch(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: scalar\n"), 0o644))

	err := DocInsert(env.Env, path, []string{"a"}, "b", "c")
	assert.ErrorIs(t, err, mutator.ErrStructureMismatch)
}

func TestDocGet_MissingFile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	err := DocGet(env.Env, filepath.Join(t.TempDir(), "missing.yaml"), nil)
	var ioErr *mutator.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestExec(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{Success: true, Stdout: []byte("hello\n")}, nil
	}

	require.NoError(t, Exec(context.Background(), env.Env, []string{"echo", "hello"}, ExecOptions{
		Env: map[string]string{"GREETING": "hi"},
	}))

	assert.Equal(t, []string{"echo hello"}, env.runner.argvs())
	assert.Equal(t, "hi", env.runner.calls[0].Overrides["GREETING"])
	desc := executor.Build("echo", "hello").WithEnv("GREETING", "hi").Describe()
	assert.Contains(t, env.out.String(), "> "+desc+"\n")
	assert.Contains(t, env.out.String(), "hello\n")
}

func TestExec_AsRootFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{ExitCode: 3, Stderr: []byte("denied\n")}, nil
	}

	err := Exec(context.Background(), env.Env, []string{"systemctl", "restart", "ssh"}, ExecOptions{AsRoot: true})
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, []string{"sudo systemctl restart ssh"}, env.runner.argvs())
	assert.Equal(t, "denied\n", env.errOut.String())

	err = Exec(context.Background(), env.Env, []string{"false"}, ExecOptions{FailOnError: true})
	var failure *executor.ExecutionFailure
	assert.ErrorAs(t, err, &failure)
}

func TestExec_DryRun(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)

	require.NoError(t, Exec(context.Background(), env.Env, []string{"rm", "-rf", "/tmp/x"}, ExecOptions{}))
	assert.Empty(t, env.runner.calls)
	assert.Equal(t, "[dry-run] "+executor.Build("rm", "-rf", "/tmp/x").Describe()+"\n", env.out.String())
}

func TestExec_NoCommand(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	assert.Error(t, Exec(context.Background(), env.Env, nil, ExecOptions{}))
}

func TestApt(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	ctx := context.Background()

	require.NoError(t, AptUpdate(ctx, env.Env))
	require.NoError(t, AptUpgrade(ctx, env.Env))
	require.NoError(t, AptInstall(ctx, env.Env, []string{"curl", "jq"}))
	require.NoError(t, AptRemove(ctx, env.Env, []string{"nano"}))

	assert.Equal(t, []string{
		"sudo apt update",
		"sudo apt dist-upgrade",
		"sudo apt install -q -y curl jq",
		"sudo apt remove -q -y nano",
	}, env.runner.argvs())
	assert.Equal(t, "noninteractive", env.runner.calls[2].Overrides["DEBIAN_FRONTEND"])
}

func TestApt_Failure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{ExitCode: 100, Stderr: []byte("E: Unable to locate package nope")}, nil
	}

	err := AptInstall(context.Background(), env.Env, []string{"nope"})
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "Unable to locate package")
}

func TestAptKeyring_DryRun(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{ExitCode: 1}, nil
	}

	require.NoError(t, AptKeyring(context.Background(), env.Env, "https://example.com/key.gpg", "example.gpg"))

	path := env.Session.KeyringPath("example.gpg")
	assert.Equal(t, []string{"test -e " + path}, env.runner.argvs())
	want := "[dry-run] " + executor.Build("install", "-d", "-m", "0755", env.Config.KeyringDir).Describe() + "\n" +
		"[dry-run] " + executor.Build("gpg", "--dearmor", "-o", path).Describe() + "\n" +
		"[dry-run] " + executor.Build("chmod", "0644", path).Describe() + "\n"
	assert.Equal(t, want, env.out.String())
}

func TestAptKeyring_AlreadyInstalled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	require.NoError(t, AptKeyring(context.Background(), env.Env, "https://example.com/key.gpg", "example.gpg"))

	assert.Equal(t, []string{"test -e " + env.Session.KeyringPath("example.gpg")}, env.runner.argvs())
	assert.Contains(t, env.out.String(), "keyring installed at")
}

func TestProfile_RemoteTarget(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	exec := executor.New(executor.WithRunner(remoteRunner{env.runner}), executor.WithEcho(nil))
	env.Session = provision.NewSession(exec, env.Context, provision.Options{})

	err := Profile(env.Env, "go", []string{"export A=1"})
	assert.ErrorIs(t, err, provision.ErrRemoteTarget)
	_, statErr := os.Stat(filepath.Join(env.home, ".bashrc"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	require.NoError(t, Profile(env.Env, "go", []string{"export PATH=$PATH:/usr/local/go/bin"}))

	path := filepath.Join(env.home, ".bashrc")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# hostkit_auto begin go\nexport PATH=$PATH:/usr/local/go/bin\n# hostkit_auto end go\n")
	assert.Equal(t, "updated block \"go\" in "+path+"\n", env.out.String())
}

func TestProfile_DryRun(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)

	require.NoError(t, Profile(env.Env, "go", []string{"export A=1"}))

	_, err := os.Stat(filepath.Join(env.home, ".bashrc"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, env.out.String(), "[dry-run] would update block \"go\"")
}

func TestShell(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.runner.respond = func(executor.Invocation) (*executor.Outcome, error) {
		return &executor.Outcome{Success: true, Stdout: []byte("ok\n")}, nil
	}

	require.NoError(t, Shell(context.Background(), env.Env, "echo ok"))
	assert.Equal(t, "bash", env.runner.calls[0].Program)
	assert.Equal(t, []string{"-c", "echo ok"}, env.runner.calls[0].Args)
	assert.True(t, strings.HasSuffix(env.out.String(), "ok\n"))
}

func TestGcloudCopy(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)

	require.NoError(t, GcloudCopy(context.Background(), env.Env, "proj", "europe-west1-b", "build.tar", "vm:/tmp/"))
	assert.Equal(t, []string{
		"gcloud compute scp --project proj --zone europe-west1-b --tunnel-through-iap build.tar vm:/tmp/",
	}, env.runner.argvs())
}

func TestCheck(t *testing.T) {
	t.Parallel()
	assert.NoError(t, check(&executor.Outcome{Success: true}, nil))

	sentinel := errors.New("spawn failed")
	assert.ErrorIs(t, check(nil, sentinel), sentinel)

	err := check(&executor.Outcome{ExitCode: 2}, nil)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, "command failed: exit code 2", err.Error())
}

func fakeProcRoot(t *testing.T, cmdlines map[int]string) string {
	t.Helper()
	root := t.TempDir()
	for pid, cmdline := range cmdlines {
		dir := filepath.Join(root, strconv.Itoa(pid))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644))
	}
	return root
}

func TestProcessFind(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.Procs = process.NewTableAt(fakeProcRoot(t, map[int]string{
		101: "anvil\x00--port\x008545\x00",
		202: "/usr/bin/dockerd\x00",
		303: "/usr/sbin/nginx\x00-g\x00daemon off;\x00",
	}))

	require.NoError(t, ProcessFind(env.Env, []string{"nginx", "anvil"}, false))
	assert.Equal(t, "101\tanvil --port 8545\n303\t/usr/sbin/nginx -g daemon off;\n", env.out.String())
}

func TestProcessFind_Regex(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	env.Procs = process.NewTableAt(fakeProcRoot(t, map[int]string{
		101: "anvil\x00--port\x008545\x00",
		303: "/usr/sbin/nginx\x00-g\x00daemon off;\x00",
	}))

	require.NoError(t, ProcessFind(env.Env, []string{"nginx"}, true))
	assert.Empty(t, env.out.String(), "regex patterns match the whole command line")

	require.NoError(t, ProcessFind(env.Env, []string{"anvil.*"}, true))
	assert.Equal(t, "101\tanvil --port 8545\n", env.out.String())
}

func TestProcessFind_InvalidPattern(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	assert.Error(t, ProcessFind(env.Env, []string{"("}, true))
}

func TestProcessKill_DryRunOnlyLists(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	env.Procs = process.NewTableAt(fakeProcRoot(t, map[int]string{
		101: "anvil\x00--port\x008545\x00",
	}))

	require.NoError(t, ProcessKill(env.Env, "anvil"))
	assert.Equal(t, "[dry-run] kill 101\tanvil --port 8545\n", env.out.String())
}

func TestBuildDoctorReport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	results := prerequisites.CheckWith(
		[]prerequisites.Tool{{Name: "docker", Required: true}, {Name: "gcloud"}},
		func(name string) (string, error) {
			if name == "docker" {
				return "/usr/bin/docker", nil
			}
			return "", errors.New("not found")
		},
		func(string) string { return "Docker version 27.0.1" },
	)

	report := buildDoctorReport(env.Env, results)

	assert.Equal(t, "x86_64", report.Arch)
	assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", report.OS)
	assert.Equal(t, "docker", report.Runtime)
	assert.True(t, report.DryRun)
	assert.Empty(t, report.Remote)
	require.Len(t, report.Tools, 2)
	assert.Equal(t, ToolStatus{Name: "docker", Required: true, Found: true, Path: "/usr/bin/docker", Version: "Docker version 27.0.1"}, report.Tools[0])
	assert.False(t, report.Tools[1].Found)

	printDoctor(env.Env, report, style.Plain())
	out := env.out.String()
	assert.Contains(t, out, "hostkit doctor")
	assert.Contains(t, out, "Debian GNU/Linux 12 (bookworm)")
	assert.Contains(t, out, "[OK]  docker   Docker version 27.0.1")
	assert.Contains(t, out, "[??]  gcloud   optional, not installed")
}
