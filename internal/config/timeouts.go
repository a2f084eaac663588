package config

import (
	"os"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Wait    time.Duration // Budget for container lifecycle waits
	Poll    time.Duration // Interval between lifecycle checks
	Command time.Duration // Default bound on a single command, 0 for none
	Port    time.Duration // Timeout for waiting on a TCP port
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - HOSTKIT_WAIT_TIMEOUT (default: 60s)
//   - HOSTKIT_POLL_INTERVAL (default: 1s)
//   - HOSTKIT_COMMAND_TIMEOUT (default: 0, unbounded)
//   - HOSTKIT_PORT_WAIT (default: 30s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Wait:    parseDuration("HOSTKIT_WAIT_TIMEOUT", 60*time.Second),
		Poll:    parseDuration("HOSTKIT_POLL_INTERVAL", 1*time.Second),
		Command: parseDuration("HOSTKIT_COMMAND_TIMEOUT", 0),
		Port:    parseDuration("HOSTKIT_PORT_WAIT", 30*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set, fails to parse or is negative, the default
// value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}

	return d
}

// S3Credentials are static credentials for the keyring S3 fetcher.
type S3Credentials struct {
	AccessKey string
	SecretKey string
}

// LoadS3Credentials reads HOSTKIT_S3_ACCESS_KEY and HOSTKIT_S3_SECRET_KEY.
// Both empty means the AWS default credential chain is used.
func LoadS3Credentials() S3Credentials {
	return S3Credentials{
		AccessKey: os.Getenv("HOSTKIT_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("HOSTKIT_S3_SECRET_KEY"),
	}
}
