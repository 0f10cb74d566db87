// Package config loads lrcsync's configuration from a TOML file with
// environment-variable overrides.
//
// Configuration resolution order, lowest to highest precedence: built-in
// defaults, the TOML file (explicit --config flag, then
// ~/.config/lrcsync/config.toml, then ./lrcsync.toml), then LRCSYNC_*
// environment variables. Path fields are expanded (~ and relative paths)
// and validated before a Config is handed back to callers.
package config
