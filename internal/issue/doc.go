// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the keg CLI: ActionableError
// carries the failed operation, the resource involved and remediation hints,
// and Issue holds longer Markdown guidance rendered with glamour.
package issue
