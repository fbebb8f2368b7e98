// SPDX-License-Identifier: MPL-2.0

// Package install executes an assembled build plan: it patches the source
// tree, writes the layout file, runs the external configure, build and
// install steps, and creates the runtime directories and log files.
//
// The external steps are fatal on a non-zero exit and are never retried.
// The filesystem fixups (EnsureDirs and EnsureFiles) create only what is
// missing and can be run any number of times.
package install
