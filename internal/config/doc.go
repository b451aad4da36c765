// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Values come, in increasing precedence, from built-in defaults, one CUE file
// (--config, <repo>/.monobuild/config.cue or the user config directory) and the
// environment: MONOBUILD_<KEY> variables plus the CI variables listed in
// EnvAliases. Files are validated against the embedded #Config schema
// (config_schema.cue).
package config
