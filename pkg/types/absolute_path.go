// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidAbsolutePath is the sentinel error wrapped by InvalidAbsolutePathError.
var ErrInvalidAbsolutePath = errors.New("invalid absolute path")

type (
	// AbsolutePath is a filesystem path that must be rooted. Layout roles,
	// install prefixes and the Cellar are all AbsolutePaths.
	AbsolutePath string

	// InvalidAbsolutePathError is returned when an AbsolutePath is empty
	// or relative.
	InvalidAbsolutePathError struct {
		Value AbsolutePath
	}
)

// String returns the string representation of the AbsolutePath.
func (p AbsolutePath) String() string { return string(p) }

// IsValid reports whether the path is non-empty and absolute.
func (p AbsolutePath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !filepath.IsAbs(string(p)) {
		return false, []error{&InvalidAbsolutePathError{Value: p}}
	}
	return true, nil
}

// Join appends elements to the path and cleans the result.
func (p AbsolutePath) Join(elem ...string) AbsolutePath {
	return AbsolutePath(filepath.Join(append([]string{string(p)}, elem...)...))
}

// Error implements the error interface for InvalidAbsolutePathError.
func (e *InvalidAbsolutePathError) Error() string {
	if e.Value == "" {
		return "invalid path: must not be empty"
	}
	return fmt.Sprintf("invalid path %q: must be absolute", e.Value)
}

// Unwrap returns ErrInvalidAbsolutePath for errors.Is() compatibility.
func (e *InvalidAbsolutePathError) Unwrap() error { return ErrInvalidAbsolutePath }
