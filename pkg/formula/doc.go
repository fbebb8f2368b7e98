// SPDX-License-Identifier: MPL-2.0

// Package formula defines the formula model and loads it from CUE, TOML or
// HCL. CUE is the canonical encoding and is validated against an embedded
// schema; every encoding then goes through the same Validate checks.
// Built-in formulas are embedded under catalog/.
package formula
