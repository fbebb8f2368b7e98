// SPDX-License-Identifier: MPL-2.0

// Package config handles keg configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/keg/config.cue (or the path given
// with --config), validated against the embedded #Config schema
// (config_schema.cue), merged over the defaults and finally overridden by
// KEG_* environment variables (KEG_PREFIX, KEG_UI_VERBOSE, ...).
package config
