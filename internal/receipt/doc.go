// SPDX-License-Identifier: MPL-2.0

// Package receipt records completed installs in a SQLite database.
//
// A receipt stores the formula, the enabled options, the assembled
// configure arguments and a fingerprint of the whole plan. The install
// command looks up the fingerprint to skip the external build steps when
// an identical install already exists.
package receipt
