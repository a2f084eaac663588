package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/hostkit/internal/executor"
)

// AptUpdate refreshes the package index.
func AptUpdate(ctx context.Context, env *Env) error {
	return check(env.Session.AptUpdate(ctx))
}

// AptUpgrade upgrades every installed package.
func AptUpgrade(ctx context.Context, env *Env) error {
	return check(env.Session.AptUpgrade(ctx))
}

// AptInstall installs packages.
func AptInstall(ctx context.Context, env *Env, pkgs []string) error {
	return check(env.Session.AptInstall(ctx, pkgs...))
}

// AptRemove removes packages.
func AptRemove(ctx context.Context, env *Env, pkgs []string) error {
	return check(env.Session.AptRemove(ctx, pkgs...))
}

// AptKeyring installs the signing key at url as name.
func AptKeyring(ctx context.Context, env *Env, url, name string) error {
	if err := env.Session.InstallKeyring(ctx, url, name); err != nil {
		return err
	}
	if env.Context.ReallyExecute {
		env.printf("keyring installed at %s\n", env.Session.KeyringPath(name))
	}
	return nil
}

// Profile writes lines as the marked block id into the user's profile.
func Profile(env *Env, id string, lines []string) error {
	if err := env.Session.AppendProfile(id, lines...); err != nil {
		return err
	}
	path, err := env.Session.ProfilePath()
	if err != nil {
		return err
	}
	if env.Context.ReallyExecute {
		env.printf("updated block %q in %s\n", id, path)
	} else {
		env.printf("[dry-run] would update block %q in %s\n", id, path)
	}
	return nil
}

// Shell runs script with bash and prints its output.
func Shell(ctx context.Context, env *Env, script string) error {
	out, err := env.Session.Shell(ctx, script)
	if err != nil {
		return err
	}
	if !out.DryRun {
		_, _ = env.Out.Write(out.Stdout)
		_, _ = env.ErrOut.Write(out.Stderr)
	}
	return check(out, nil)
}

// GcloudCopy copies src to dst on a Compute Engine instance.
func GcloudCopy(ctx context.Context, env *Env, project, zone, src, dst string) error {
	return check(env.Session.GcloudCopy(ctx, project, zone, src, dst))
}

func check(out *executor.Outcome, err error) error {
	if err != nil {
		return err
	}
	if !out.Success {
		if len(out.Stderr) > 0 {
			return fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, out.ExitCode, out.Stderr)
		}
		return fmt.Errorf("%w: exit code %d", ErrCommandFailed, out.ExitCode)
	}
	return nil
}
