// Package config loads stubd server configuration.
//
// Configuration comes from, in increasing precedence: built-in defaults, a
// YAML file, STUBD_* environment variables and command line flags (applied
// by the CLI). Without an explicit path, stubd.yaml or stubd.yml in the
// working directory is used when present.
package config
