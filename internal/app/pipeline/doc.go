// SPDX-License-Identifier: MPL-2.0

// Package pipeline wires the formula engine into the one-way flow used by
// the CLI: option registry, dependency resolver, build plan assembler,
// layout and service rendering, and finally the install executor with its
// receipt bookkeeping.
//
// Planning is pure apart from reading the Cellar. Nothing is written until
// Install or Fixup is called with a complete plan.
package pipeline
