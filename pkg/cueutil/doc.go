// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Formula files and the keg configuration file share the same flow: compile
// the schema, unify it with the user document, validate, then decode into a
// Go struct. Errors carry the file name and a JSON-style field path:
//
//	result, err := cueutil.ParseAndDecode[formula.Document](
//	    schemaBytes, data, "#Formula",
//	    cueutil.WithFilename("httpd22.cue"),
//	)
package cueutil
