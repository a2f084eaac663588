// Package config loads hostkit's settings.
//
// Settings come from an optional hostkit.yaml or hostkit.toml file, decoded
// into a map and then into [Config] with mapstructure. Timeouts and S3
// credentials come from environment variables, see [LoadTimeouts] and
// [LoadS3Credentials].
package config
