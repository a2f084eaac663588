// Package provision bundles the higher-level steps of provisioning scripts:
// package management, root and shell commands, profile blocks, apt
// keyrings and file copies to cloud instances.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/imamik/hostkit/internal/executor"
	"github.com/imamik/hostkit/internal/fetch"
	"github.com/imamik/hostkit/internal/mutator"
)

const (
	// DefaultProfile is the file AppendProfile edits, relative to home.
	DefaultProfile = ".bashrc"

	// DefaultKeyringDir is where InstallKeyring stores de-armored keys.
	DefaultKeyringDir = "/etc/apt/keyrings"

	keyringMode    fs.FileMode = 0o644
	keyringDirMode fs.FileMode = 0o755
)

// ErrEnvironment is executor.ErrEnvironment, re-exported for callers of
// this package.
var ErrEnvironment = executor.ErrEnvironment

// ErrRemoteTarget is returned by steps that only work on the local host.
var ErrRemoteTarget = errors.New("operation not supported on a remote target")

// Options configures a Session.
type Options struct {
	// Elevation is the privilege elevation program. Defaults to sudo.
	Elevation string

	// MarkerPrefix is used for profile blocks. Defaults to
	// mutator.DefaultMarkerPrefix.
	MarkerPrefix string

	// Profile is the profile file name relative to home.
	Profile string

	// KeyringDir is where apt keyrings are written.
	KeyringDir string

	// Fetcher downloads keyrings. Required by InstallKeyring.
	Fetcher fetch.Fetcher

	Logger logr.Logger
}

// Session runs provisioning steps within one executor Context.
type Session struct {
	exec *executor.Executor
	ectx *executor.Context
	opts Options
}

// NewSession returns a Session. Zero-valued options take their defaults.
func NewSession(exec *executor.Executor, ectx *executor.Context, opts Options) *Session {
	if opts.Elevation == "" {
		opts.Elevation = executor.DefaultElevation
	}
	if opts.MarkerPrefix == "" {
		opts.MarkerPrefix = mutator.DefaultMarkerPrefix
	}
	if opts.Profile == "" {
		opts.Profile = DefaultProfile
	}
	if opts.KeyringDir == "" {
		opts.KeyringDir = DefaultKeyringDir
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	return &Session{exec: exec, ectx: ectx, opts: opts}
}

// Context returns the executor Context the session runs in.
func (s *Session) Context() *executor.Context {
	return s.ectx
}

func (s *Session) run(ctx context.Context, cmd *executor.Command) (*executor.Outcome, error) {
	return s.exec.Execute(ctx, s.ectx, cmd)
}

func (s *Session) asRoot(args ...string) *executor.Command {
	return executor.AsRootWith(s.opts.Elevation, args...)
}

// AsRoot runs args through the elevation program.
func (s *Session) AsRoot(ctx context.Context, args ...string) (*executor.Outcome, error) {
	return s.run(ctx, s.asRoot(args...))
}

// Shell runs script with bash -c.
func (s *Session) Shell(ctx context.Context, script string) (*executor.Outcome, error) {
	return s.run(ctx, executor.Build("bash", "-c", script))
}

// AptUpdate refreshes the package index.
func (s *Session) AptUpdate(ctx context.Context) (*executor.Outcome, error) {
	return s.run(ctx, s.asRoot("apt", "update"))
}

// AptUpgrade runs a dist-upgrade.
func (s *Session) AptUpgrade(ctx context.Context) (*executor.Outcome, error) {
	return s.run(ctx, s.asRoot("apt", "dist-upgrade"))
}

// AptInstall installs pkgs non-interactively.
func (s *Session) AptInstall(ctx context.Context, pkgs ...string) (*executor.Outcome, error) {
	return s.run(ctx, s.aptNoninteractive("install", pkgs))
}

// AptRemove removes pkgs non-interactively.
func (s *Session) AptRemove(ctx context.Context, pkgs ...string) (*executor.Outcome, error) {
	return s.run(ctx, s.aptNoninteractive("remove", pkgs))
}

func (s *Session) aptNoninteractive(verb string, pkgs []string) *executor.Command {
	args := append([]string{"apt", verb, "-q", "-y"}, pkgs...)
	return s.asRoot(args...).WithEnv("DEBIAN_FRONTEND", "noninteractive")
}

// GcloudCopy copies src to dst with gcloud compute scp through IAP.
func (s *Session) GcloudCopy(ctx context.Context, project, zone, src, dst string) (*executor.Outcome, error) {
	return s.run(ctx, executor.Build("gcloud",
		"compute", "scp",
		"--project", project,
		"--zone", zone,
		"--tunnel-through-iap",
		src, dst,
	))
}

// ProfilePath returns the profile file inside the context's home directory.
func (s *Session) ProfilePath() (string, error) {
	home, ok := s.ectx.Getenv("HOME")
	if !ok || home == "" {
		return "", fmt.Errorf("%w: HOME is not set", ErrEnvironment)
	}
	return filepath.Join(home, s.opts.Profile), nil
}

// AppendProfile writes lines as the marked block id into the profile. A dry
// run only reports the change. The profile is edited on local disk, so a
// session whose executor targets another host fails with ErrRemoteTarget.
func (s *Session) AppendProfile(id string, lines ...string) error {
	if s.exec.Remote() {
		return fmt.Errorf("%w: cannot edit the profile of a remote host", ErrRemoteTarget)
	}
	profile, err := s.ProfilePath()
	if err != nil {
		return err
	}
	block := mutator.Block{ID: id, Prefix: s.opts.MarkerPrefix, Content: lines}

	if !s.ectx.ReallyExecute {
		s.opts.Logger.Info("would update profile block", "path", profile, "block", id, "lines", len(lines))
		return nil
	}
	if err := mutator.ApplyBlock(profile, block); err != nil {
		return err
	}
	s.opts.Logger.Info("updated profile block", "path", profile, "block", id)
	return nil
}

// KeyringPath returns where the keyring name is stored.
func (s *Session) KeyringPath(name string) string {
	return path.Join(s.opts.KeyringDir, name)
}

// KeyringInstalled reports whether the keyring name exists on the target.
// The check runs even in a dry run.
func (s *Session) KeyringInstalled(ctx context.Context, name string) (bool, error) {
	q := *s.ectx
	q.ReallyExecute = true
	out, err := s.exec.Execute(ctx, &q, executor.Query("test", "-e", s.KeyringPath(name)).Quiet())
	if err != nil {
		return false, fmt.Errorf("failed to check keyring %s: %w", name, err)
	}
	return out.Success, nil
}

// InstallKeyring downloads the key at url and de-armors it into the keyring
// directory with gpg. An existing keyring is left alone. Every file
// operation goes through the executor, so the keyring lands on whichever
// host the executor targets. A dry run fetches nothing.
func (s *Session) InstallKeyring(ctx context.Context, url, name string) error {
	keyring := s.KeyringPath(name)
	installed, err := s.KeyringInstalled(ctx, name)
	if err != nil {
		return err
	}
	if installed {
		s.opts.Logger.V(1).Info("keyring already installed", "path", keyring)
		return nil
	}

	mkdir := executor.Build("install", "-d", "-m", fmt.Sprintf("%04o", keyringDirMode), s.opts.KeyringDir).MustSucceed()
	dearmor := executor.Build("gpg", "--dearmor", "-o", keyring).MustSucceed()
	chmod := executor.Build("chmod", fmt.Sprintf("%04o", keyringMode), keyring).MustSucceed()

	var key []byte
	if s.ectx.ReallyExecute {
		if s.opts.Fetcher == nil {
			return fmt.Errorf("no fetcher configured for keyring %s", url)
		}
		s.opts.Logger.Info("downloading keyring", "name", name, "url", url)
		if key, err = s.opts.Fetcher.Fetch(ctx, url); err != nil {
			return fmt.Errorf("failed to download keyring %s: %w", name, err)
		}
	}

	for _, cmd := range []*executor.Command{mkdir, dearmor.WithInput(key), chmod} {
		if _, err := s.run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
