// SPDX-License-Identifier: MPL-2.0

package layout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicReference is the sentinel error wrapped by CyclicReferenceError.
	ErrCyclicReference = errors.New("cyclic layout reference")
	// ErrUndefinedReference is the sentinel error wrapped by UndefinedReferenceError.
	ErrUndefinedReference = errors.New("undefined reference")
	// ErrRelativePath is the sentinel error wrapped by RelativePathError.
	ErrRelativePath = errors.New("layout path is not absolute")
	// ErrInvalidBinding is the sentinel error wrapped by InvalidBindingError.
	ErrInvalidBinding = errors.New("invalid layout binding")
	// ErrInvalidTemplate is returned for templates with empty or repeated roles.
	ErrInvalidTemplate = errors.New("invalid layout template")
)

type (
	// CyclicReferenceError is returned when roles refer to each other in a
	// loop, so substitution cannot finish.
	CyclicReferenceError struct {
		// Roles are the members of the cycle in reference order.
		Roles []string
	}

	// UndefinedReferenceError is returned when a token names neither a role
	// nor a binding.
	UndefinedReferenceError struct {
		// Role is the role whose expression holds the token. It is empty
		// when the token came from outside a layout template.
		Role      string
		Reference string
	}

	// InvalidBindingError is returned when a binding value holds a token or
	// is not an absolute path. Bindings are substituted verbatim.
	InvalidBindingError struct {
		Name  string
		Value string
	}

	// RelativePathError is returned when a role resolves to a relative path.
	RelativePathError struct {
		Role string
		Path string
	}
)

// Error implements the error interface.
func (e *CyclicReferenceError) Error() string {
	if len(e.Roles) == 0 {
		return ErrCyclicReference.Error()
	}
	loop := append(append([]string{}, e.Roles...), e.Roles[0])
	return fmt.Sprintf("cyclic layout reference: %s", strings.Join(loop, " -> "))
}

// Unwrap returns ErrCyclicReference for errors.Is() compatibility.
func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }

// Error implements the error interface.
func (e *UndefinedReferenceError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("undefined reference ${%s}", e.Reference)
	}
	return fmt.Sprintf("role %q: undefined reference ${%s}", e.Role, e.Reference)
}

// Unwrap returns ErrUndefinedReference for errors.Is() compatibility.
func (e *UndefinedReferenceError) Unwrap() error { return ErrUndefinedReference }

// Error implements the error interface.
func (e *InvalidBindingError) Error() string {
	if HasTokens(e.Value) {
		return fmt.Sprintf("binding %q = %q must not contain ${...} tokens", e.Name, e.Value)
	}
	return fmt.Sprintf("binding %q = %q is not an absolute path", e.Name, e.Value)
}

// Unwrap returns ErrInvalidBinding for errors.Is() compatibility.
func (e *InvalidBindingError) Unwrap() error { return ErrInvalidBinding }

// Error implements the error interface.
func (e *RelativePathError) Error() string {
	return fmt.Sprintf("role %q resolves to %q, which is not an absolute path", e.Role, e.Path)
}

// Unwrap returns ErrRelativePath for errors.Is() compatibility.
func (e *RelativePathError) Unwrap() error { return ErrRelativePath }
