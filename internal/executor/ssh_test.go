package executor

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"testing"
	"time"

	"github.com/apparentlymart/go-shquot/shquot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func testPrivateKey(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	return pem.EncodeToMemory(block)
}

func TestNewSSHRunner_Validation(t *testing.T) {
	t.Parallel()
	key := testPrivateKey(t)

	tests := []struct {
		name    string
		cfg     *SSHConfig
		wantErr string
	}{
		{"nil config", nil, "config cannot be nil"},
		{"empty host", &SSHConfig{User: "root", PrivateKey: key}, "host cannot be empty"},
		{"empty user", &SSHConfig{Host: "h", PrivateKey: key}, "user cannot be empty"},
		{"empty key", &SSHConfig{Host: "h", User: "root"}, "private key cannot be empty"},
		{"bad key", &SSHConfig{Host: "h", User: "root", PrivateKey: []byte("nope")}, "failed to parse private key"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSSHRunner(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSSHRunner_Defaults(t *testing.T) {
	t.Parallel()
	cfg := &SSHConfig{Host: "10.0.0.1", User: "root", PrivateKey: testPrivateKey(t)}

	r, err := NewSSHRunner(cfg)
	require.NoError(t, err)

	assert.Equal(t, defaultSSHPort, r.config.Port)
	assert.Equal(t, defaultSSHDialTimeout, r.config.DialTimeout)
	assert.Equal(t, defaultSSHMaxRetries, r.config.MaxRetries)
	assert.NotNil(t, r.config.HostKeyCallback)
	assert.Zero(t, cfg.Port, "caller config must not be mutated")
}

func TestExecutor_Remote(t *testing.T) {
	t.Parallel()
	r, err := NewSSHRunner(&SSHConfig{Host: "10.0.0.1", User: "root", PrivateKey: testPrivateKey(t)})
	require.NoError(t, err)

	assert.True(t, New(WithRunner(r)).Remote())
	assert.False(t, New().Remote())
	assert.False(t, New(WithRunner(&fakeRunner{})).Remote())
}

func TestRemoteCommandLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, shquot.POSIXShell([]string{"ls", "-l"}),
		RemoteCommandLine(Invocation{Program: "ls", Args: []string{"-l"}}))

	got := RemoteCommandLine(Invocation{
		Program:   "apt",
		Args:      []string{"install", "-y", "curl"},
		Overrides: map[string]string{"DEBIAN_FRONTEND": "noninteractive", "A": "1"},
		Paths:     []string{"/opt/bin"},
	})
	want := `PATH="$PATH"` + shquot.POSIXShell([]string{":/opt/bin"}) + " " +
		shquot.POSIXShell([]string{"env", "A=1", "DEBIAN_FRONTEND=noninteractive", "apt", "install", "-y", "curl"})
	assert.Equal(t, want, got)
}

func TestSSHRunner_Run_Unreachable(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	r, err := NewSSHRunner(&SSHConfig{
		Host:        "127.0.0.1",
		Port:        port,
		User:        "root",
		PrivateKey:  testPrivateKey(t),
		DialTimeout: time.Second,
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
	})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), Invocation{Program: "true"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to establish SSH connection")
	assert.Contains(t, err.Error(), "gave up after 2 attempts")
}
