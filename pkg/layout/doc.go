// SPDX-License-Identifier: MPL-2.0

// Package layout resolves a formula's filesystem layout template.
//
// A template is an ordered list of path roles ("prefix", "bindir", ...),
// each with a path expression that may refer to other roles or to external
// bindings ("keg", "var", ...) through ${name} tokens. Render substitutes
// tokens until every role is an absolute path, reporting reference cycles by
// the roles that form them. Expand is the token substitution shared with the
// build plan, the install executor and the service renderer.
package layout
