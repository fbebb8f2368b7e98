// SPDX-License-Identifier: MPL-2.0

// Package options declares a formula's user-toggleable build options and
// resolves user overrides into an immutable Selected set.
package options

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

var (
	// ErrUnknownOption is the sentinel error wrapped by UnknownOptionError.
	ErrUnknownOption = errors.New("unknown option")
	// ErrDuplicateOption is the sentinel error wrapped by DuplicateOptionError.
	ErrDuplicateOption = errors.New("duplicate option")
	// ErrInvalidOptionName is the sentinel error wrapped by InvalidOptionNameError.
	ErrInvalidOptionName = errors.New("invalid option name")

	optionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

type (
	// Spec declares one boolean build option.
	Spec struct {
		Name        string                `json:"name" toml:"name"`
		Description types.DescriptionText `json:"description,omitempty" toml:"description,omitempty"`
		Default     bool                  `json:"default" toml:"default"`
	}

	// Registry holds the option specs of one formula in declaration order.
	Registry struct {
		specs []Spec
		index map[string]int
	}

	// Selected is the resolved on/off value of every declared option. It is
	// immutable; accessors return copies.
	Selected struct {
		values map[string]bool
	}

	// UnknownOptionError is returned when an override names an undeclared option.
	UnknownOptionError struct {
		Name  string
		Known []string
	}

	// DuplicateOptionError is returned when an option is registered twice.
	DuplicateOptionError struct {
		Name string
	}

	// InvalidOptionNameError is returned for names that are empty, contain
	// whitespace, or start with the '!' negation marker.
	InvalidOptionNameError struct {
		Name string
	}
)

// NewRegistry creates a Registry and registers specs in order.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(specs))}
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds spec to the registry.
func (r *Registry) Register(spec Spec) error {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if !optionNamePattern.MatchString(spec.Name) {
		return &InvalidOptionNameError{Name: spec.Name}
	}
	if ok, errs := spec.Description.IsValid(); !ok {
		return errors.Join(errs...)
	}
	if _, exists := r.index[spec.Name]; exists {
		return &DuplicateOptionError{Name: spec.Name}
	}
	r.index[spec.Name] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// Specs returns the registered specs in declaration order.
func (r *Registry) Specs() []Spec {
	return slices.Clone(r.specs)
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	i, ok := r.index[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Resolve applies overrides on top of the declared defaults. Overrides are
// checked in sorted key order so the reported unknown option is stable.
func (r *Registry) Resolve(overrides map[string]bool) (Selected, error) {
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := r.index[name]; !ok {
			return Selected{}, &UnknownOptionError{Name: name, Known: r.names()}
		}
	}

	values := make(map[string]bool, len(r.specs))
	for _, spec := range r.specs {
		values[spec.Name] = spec.Default
		if v, ok := overrides[spec.Name]; ok {
			values[spec.Name] = v
		}
	}
	return Selected{values: values}, nil
}

func (r *Registry) names() []string {
	names := make([]string, len(r.specs))
	for i, spec := range r.specs {
		names[i] = spec.Name
	}
	return names
}

// Enabled reports whether the named option is on. Undeclared names are off.
func (s Selected) Enabled(name string) bool {
	return s.values[name]
}

// Declared reports whether name is one of the resolved options.
func (s Selected) Declared(name string) bool {
	_, ok := s.values[name]
	return ok
}

// On returns the names of enabled options, sorted.
func (s Selected) On() []string {
	var on []string
	for _, name := range slices.Sorted(maps.Keys(s.values)) {
		if s.values[name] {
			on = append(on, name)
		}
	}
	return on
}

// Map returns a copy of every option's value.
func (s Selected) Map() map[string]bool {
	return maps.Clone(s.values)
}

// String renders the enabled options as "--with a --with b".
func (s Selected) String() string {
	on := s.On()
	if len(on) == 0 {
		return "(defaults)"
	}
	parts := make([]string, len(on))
	for i, name := range on {
		parts[i] = "--with " + name
	}
	return strings.Join(parts, " ")
}

// Error implements the error interface.
func (e *UnknownOptionError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown option %q: the formula declares no options", e.Name)
	}
	return fmt.Sprintf("unknown option %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownOption for errors.Is() compatibility.
func (e *UnknownOptionError) Unwrap() error { return ErrUnknownOption }

// Error implements the error interface.
func (e *DuplicateOptionError) Error() string {
	return fmt.Sprintf("option %q is already registered", e.Name)
}

// Unwrap returns ErrDuplicateOption for errors.Is() compatibility.
func (e *DuplicateOptionError) Unwrap() error { return ErrDuplicateOption }

// Error implements the error interface.
func (e *InvalidOptionNameError) Error() string {
	return fmt.Sprintf("invalid option name %q: must be lowercase letters, digits and '-'", e.Name)
}

// Unwrap returns ErrInvalidOptionName for errors.Is() compatibility.
func (e *InvalidOptionNameError) Unwrap() error { return ErrInvalidOptionName }
