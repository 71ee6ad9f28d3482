// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/execstream/config.cue (or $XDG_CONFIG_HOME on
// Linux, ~/Library/Application Support/execstream/config.cue on macOS, %APPDATA%\execstream
// on Windows), falling back to ./config.cue. Every key can be overridden with an
// EXECSTREAM_ environment variable, dots replaced by underscores
// (EXECSTREAM_EXEC_POLL_ATTEMPTS=20).
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
