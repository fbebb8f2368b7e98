// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for keg.
//
// Commands are built from an App (see NewApp), which carries the config
// provider, the filesystem and the build-step runner. Engine errors are
// turned into issue.ActionableError values here and nowhere else.
package cmd
