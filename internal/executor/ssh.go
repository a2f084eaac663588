package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apparentlymart/go-shquot/shquot"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/hostkit/internal/util/retry"
)

const (
	defaultSSHPort        = 22
	defaultSSHDialTimeout = 10 * time.Second
	defaultSSHMaxRetries  = 5
	defaultSSHRetryDelay  = 2 * time.Second
	defaultSSHMaxDelay    = 10 * time.Second
)

// SSHConfig holds the connection settings of an SSHRunner.
type SSHConfig struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultSSHDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the maximum number of connection retry attempts.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// SSHRunner runs commands on a remote host. Each Run opens its own
// connection.
//
// The remote side keeps its own environment. Only the overrides and the
// appended PATH entries of an invocation are applied there.
type SSHRunner struct {
	config *SSHConfig
	signer ssh.Signer
}

// Remote always reports true.
func (r *SSHRunner) Remote() bool {
	return true
}

// NewSSHRunner validates cfg and parses the private key.
func NewSSHRunner(cfg *SSHConfig) (*SSHRunner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultSSHPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultSSHDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultSSHMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultSSHRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Opt-in via config
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &SSHRunner{config: &configCopy, signer: signer}, nil
}

func (r *SSHRunner) Run(ctx context.Context, inv Invocation) (*Outcome, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", r.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if inv.Stdin != nil {
		session.Stdin = bytes.NewReader(inv.Stdin)
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(RemoteCommandLine(inv)) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = client.Close()
		return &Outcome{ExitCode: -1}, fmt.Errorf("%s on %s interrupted: %w", inv.Program, r.config.Host, ctx.Err())
	case err = <-done:
	}

	outcome := &Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		outcome.Success = true
	case errors.As(err, &exitErr):
		outcome.ExitCode = exitErr.ExitStatus()
	default:
		return nil, fmt.Errorf("command failed on %s: %w", r.config.Host, err)
	}
	return outcome, nil
}

// connect establishes the SSH connection with retry logic.
func (r *SSHRunner) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User: r.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(r.signer),
		},
		HostKeyCallback: r.config.HostKeyCallback,
		Timeout:         r.config.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", r.config.Host, r.config.Port)
	var client *ssh.Client

	err := retry.Do(ctx, func(context.Context) error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		if dialErr != nil && strings.Contains(dialErr.Error(), "unable to authenticate") {
			return retry.Fatal(dialErr)
		}
		return dialErr
	},
		retry.WithMaxRetries(r.config.MaxRetries),
		retry.WithInitialDelay(r.config.RetryDelay),
		retry.WithMaxDelay(defaultSSHMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}
	return client, nil
}

// RemoteCommandLine renders inv as a POSIX shell line for the remote side:
// appended PATH entries, then the overrides through env(1), then the
// program and its arguments.
func RemoteCommandLine(inv Invocation) string {
	var parts []string
	if len(inv.Paths) > 0 {
		parts = append(parts, `PATH="$PATH"`+shquot.POSIXShell([]string{":" + strings.Join(inv.Paths, ":")}))
	}

	argv := []string{}
	if len(inv.Overrides) > 0 {
		keys := make([]string, 0, len(inv.Overrides))
		for k := range inv.Overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		argv = append(argv, "env")
		for _, k := range keys {
			argv = append(argv, k+"="+inv.Overrides[k])
		}
	}
	argv = append(argv, inv.Program)
	argv = append(argv, inv.Args...)

	parts = append(parts, shquot.POSIXShell(argv))
	return strings.Join(parts, " ")
}
