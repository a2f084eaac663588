package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Defaults applied by LoadFile and Default.
const (
	DefaultMarkerPrefix     = "hostkit_auto"
	DefaultProfile          = ".bashrc"
	DefaultContainerRuntime = "docker"
	DefaultElevation        = "sudo"
	DefaultKeyringDir       = "/etc/apt/keyrings"
	DefaultSSHPort          = 22
)

// Config holds hostkit's file-based settings.
type Config struct {
	// MarkerPrefix names the marker lines of profile blocks.
	MarkerPrefix string `mapstructure:"markerPrefix" yaml:"markerPrefix" toml:"markerPrefix"`

	// Profile is the profile file, relative to the home directory.
	Profile string `mapstructure:"profile" yaml:"profile" toml:"profile"`

	// ContainerRuntime is the container CLI, e.g. docker or podman.
	ContainerRuntime string `mapstructure:"containerRuntime" yaml:"containerRuntime" toml:"containerRuntime"`

	// Elevation is the program used to run commands as root.
	Elevation string `mapstructure:"elevation" yaml:"elevation" toml:"elevation"`

	// KeyringDir is where apt keyrings are installed.
	KeyringDir string `mapstructure:"keyringDir" yaml:"keyringDir" toml:"keyringDir"`

	// Paths are appended to PATH for every command.
	Paths []string `mapstructure:"paths" yaml:"paths" toml:"paths"`

	// Env is set for every command.
	Env map[string]string `mapstructure:"env" yaml:"env" toml:"env"`

	Remote RemoteConfig `mapstructure:"remote" yaml:"remote" toml:"remote"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3" toml:"s3"`
}

// RemoteConfig selects SSH execution. An empty Host means local execution.
type RemoteConfig struct {
	Host    string `mapstructure:"host" yaml:"host" toml:"host"`
	Port    int    `mapstructure:"port" yaml:"port" toml:"port"`
	User    string `mapstructure:"user" yaml:"user" toml:"user"`
	KeyPath string `mapstructure:"keyPath" yaml:"keyPath" toml:"keyPath"`
}

// Enabled reports whether commands should run over SSH.
func (r RemoteConfig) Enabled() bool {
	return r.Host != ""
}

// S3Config points the keyring fetcher at an S3-compatible store.
type S3Config struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Region   string `mapstructure:"region" yaml:"region" toml:"region"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MarkerPrefix == "" {
		c.MarkerPrefix = DefaultMarkerPrefix
	}
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if c.ContainerRuntime == "" {
		c.ContainerRuntime = DefaultContainerRuntime
	}
	if c.Elevation == "" {
		c.Elevation = DefaultElevation
	}
	if c.KeyringDir == "" {
		c.KeyringDir = DefaultKeyringDir
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	if c.Remote.Enabled() && c.Remote.Port == 0 {
		c.Remote.Port = DefaultSSHPort
	}
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.MarkerPrefix, " \t\n") {
		return fmt.Errorf("markerPrefix must not contain whitespace, got %q", c.MarkerPrefix)
	}
	if filepath.IsAbs(c.Profile) {
		return fmt.Errorf("profile must be relative to the home directory, got %q", c.Profile)
	}
	if !filepath.IsAbs(c.KeyringDir) {
		return fmt.Errorf("keyringDir must be absolute, got %q", c.KeyringDir)
	}
	for _, p := range c.Paths {
		if strings.Contains(p, ":") {
			return fmt.Errorf("path entry %q must not contain ':'", p)
		}
	}
	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("invalid environment variable name %q", k)
		}
	}
	if err := c.Remote.validate(); err != nil {
		return fmt.Errorf("remote validation failed: %w", err)
	}
	return nil
}

func (r RemoteConfig) validate() error {
	if !r.Enabled() {
		return nil
	}
	if r.User == "" {
		return fmt.Errorf("user is required when host is set")
	}
	if r.KeyPath == "" {
		return fmt.Errorf("keyPath is required when host is set")
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", r.Port)
	}
	return nil
}
