// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
var ErrInvalidPackageName = errors.New("invalid package name")

// packageNamePattern accepts names like "httpd22", "apr-util", "openssl@3"
// and "libxml++".
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._+@-]*$`)

type (
	// PackageName names a formula or an installed package. Names are
	// lowercase and double as directory names under the Cellar and opt/.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName does not match
	// the allowed pattern.
	InvalidPackageNameError struct {
		Value PackageName
	}
)

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// IsValid reports whether the name is a usable package name.
func (n PackageName) IsValid() (bool, []error) {
	if !packageNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidPackageNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be lowercase letters, digits, '.', '_', '+', '@' or '-'", e.Value)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }
