package executor

import (
	"testing"
	"time"

	"github.com/apparentlymart/go-shquot/shquot"
	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cmd       *Command
		argv      []string
		necessity Necessity
		effect    Effect
	}{
		{"build", Build("ls", "-l"), []string{"ls", "-l"}, Mandatory, Imperative},
		{"as root", AsRoot("apt", "update"), []string{"sudo", "apt", "update"}, Mandatory, Imperative},
		{"as root with doas", AsRootWith("doas", "id"), []string{"doas", "id"}, Mandatory, Imperative},
		{"query", Query("docker", "ps"), []string{"docker", "ps"}, Optional, Interrogative},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.argv, tt.cmd.Argv())
			assert.Equal(t, tt.necessity, tt.cmd.Necessity)
			assert.Equal(t, tt.effect, tt.cmd.Effect)
		})
	}
}

func TestCommand_Chaining(t *testing.T) {
	t.Parallel()
	cmd := Build("gpg", "--dearmor").
		WithEnv("A", "1").
		WithInput([]byte("data")).
		WithTimeout(time.Second).
		WithColor("#ffffff").
		Quiet().
		ShowOutput().
		MustSucceed().
		Optional().
		Interrogative()

	assert.Equal(t, map[string]string{"A": "1"}, cmd.Env)
	assert.Equal(t, []byte("data"), cmd.Input)
	assert.Equal(t, time.Second, cmd.Timeout)
	assert.Equal(t, "#ffffff", cmd.Color)
	assert.True(t, cmd.Silent)
	assert.True(t, cmd.LogOutput)
	assert.True(t, cmd.FailOnError)
	assert.Equal(t, Optional, cmd.Necessity)
	assert.Equal(t, Interrogative, cmd.Effect)

	cmd.Mandatory().Imperative()
	assert.Equal(t, Mandatory, cmd.Necessity)
	assert.Equal(t, Imperative, cmd.Effect)
}

func TestCommand_Describe(t *testing.T) {
	t.Parallel()
	cmd := AsRoot("apt", "install", "-y", "it's").
		WithEnv("DEBIAN_FRONTEND", "noninteractive").
		WithEnv("A", "x y")

	want := "A=" + shquot.POSIXShell([]string{"x y"}) +
		" DEBIAN_FRONTEND=" + shquot.POSIXShell([]string{"noninteractive"}) +
		" " + shquot.POSIXShell([]string{"sudo", "apt", "install", "-y", "it's"})
	assert.Equal(t, want, cmd.Describe())
	assert.Equal(t, want, cmd.String())
}

func TestVariantStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "mandatory", Mandatory.String())
	assert.Equal(t, "optional", Optional.String())
	assert.Equal(t, "imperative", Imperative.String())
	assert.Equal(t, "interrogative", Interrogative.String())
	assert.Equal(t, "effect(7)", Effect(7).String())
}

func TestOutcome_TrimmedStdout(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "running", (&Outcome{Stdout: []byte("  running\n")}).TrimmedStdout())

	var nilOutcome *Outcome
	assert.Empty(t, nilOutcome.TrimmedStdout())
}

func TestExecutionFailure_Error(t *testing.T) {
	t.Parallel()
	err := &ExecutionFailure{
		Command: Build("false"),
		Outcome: &Outcome{ExitCode: 1, Stderr: []byte("boom\n")},
	}
	assert.Contains(t, err.Error(), "exited with code 1")
	assert.Contains(t, err.Error(), "stderr: boom")
	assert.NotContains(t, err.Error(), "stdout:")
}
