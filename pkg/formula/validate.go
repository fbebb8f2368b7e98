// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/options"
)

// ErrInvalidFormula is the sentinel error wrapped by ValidationErrors.
var ErrInvalidFormula = errors.New("invalid formula")

// ValidationErrors collects every problem found in a formula.
type ValidationErrors struct {
	Formula string
	Errs    []error
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	lines := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		lines[i] = err.Error()
	}
	if len(lines) == 1 {
		return fmt.Sprintf("formula %s: %s", e.Formula, lines[0])
	}
	return fmt.Sprintf("formula %s: %d problems:\n  %s", e.Formula, len(lines), strings.Join(lines, "\n  "))
}

// Unwrap returns the sentinel and the collected errors, so errors.Is finds
// both ErrInvalidFormula and the individual causes.
func (e *ValidationErrors) Unwrap() []error {
	return append([]error{ErrInvalidFormula}, e.Errs...)
}

// Validate checks the invariants the rest of keg relies on. It returns a
// *ValidationErrors listing every violation, or nil.
func (f *Formula) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	wrap := func(where string, err error) {
		errs = append(errs, fmt.Errorf("%s: %w", where, err))
	}

	if ok, nameErrs := f.Name.IsValid(); !ok {
		errs = append(errs, nameErrs...)
	}
	if strings.TrimSpace(f.Version) == "" {
		add("version must not be empty")
	}
	if ok, descErrs := f.Description.IsValid(); !ok {
		errs = append(errs, descErrs...)
	}

	registry, err := options.NewRegistry(f.Options...)
	if err != nil {
		wrap("options", err)
		registry, _ = options.NewRegistry()
	}
	declared := func(name string) bool {
		_, ok := registry.Lookup(name)
		return ok
	}

	checkRef := func(where string, ref PackageRef) {
		if ok, refErrs := ref.Name.IsValid(); !ok {
			for _, e := range refErrs {
				wrap(where, e)
			}
		}
		if err := ref.Version.Validate(); !ref.Version.IsZero() && err != nil {
			wrap(where, err)
		}
	}
	checkPredicate := func(where string, p Predicate) {
		if err := p.Validate(declared); err != nil {
			wrap(where, err)
		}
	}

	for i, dep := range f.Dependencies {
		where := fmt.Sprintf("dependencies[%d]", i)
		checkRef(where, dep.Package)
		checkPredicate(where, dep.When)
	}
	for i, c := range f.Conflicts {
		checkRef(fmt.Sprintf("conflicts[%d]", i), c.Package)
	}

	capabilities := make(map[string]bool, len(f.ChoiceGroups))
	for i, g := range f.ChoiceGroups {
		where := fmt.Sprintf("choice_groups[%d]", i)
		if strings.TrimSpace(g.Capability) == "" {
			add("%s: capability must not be empty", where)
		} else if capabilities[g.Capability] {
			add("%s: capability %q declared more than once", where, g.Capability)
		}
		capabilities[g.Capability] = true
		errs = append(errs, validateGroup(where, g, checkRef, checkPredicate)...)
	}

	if err := f.Layout.Validate(); err != nil {
		wrap("layout", err)
	}
	for i, p := range f.Patches {
		if strings.TrimSpace(p.File) == "" || p.Old == "" {
			add("patches[%d]: file and old text are required", i)
		}
	}
	if f.Service != nil && len(f.Service.Command) == 0 {
		add("service: command must not be empty")
	}
	for i, c := range f.Caveats {
		checkPredicate(fmt.Sprintf("caveats[%d]", i), c.When)
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationErrors{Formula: string(f.Name), Errs: errs}
}

func validateGroup(where string, g ChoiceGroup, checkRef func(string, PackageRef), checkPredicate func(string, Predicate)) []error {
	var errs []error
	if len(g.Providers) == 0 {
		return []error{fmt.Errorf("%s: at least one provider is required", where)}
	}

	defaults := 0
	names := make(map[string]bool, len(g.Providers))
	for j, p := range g.Providers {
		pwhere := fmt.Sprintf("%s.providers[%d]", where, j)
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name must not be empty", pwhere))
		} else if names[p.Name] {
			errs = append(errs, fmt.Errorf("%s: provider %q declared more than once", pwhere, p.Name))
		}
		names[p.Name] = true
		if p.Default {
			defaults++
		} else if p.When.IsZero() {
			errs = append(errs, fmt.Errorf("%s: provider %q has no 'when' and is not the default, so it can never be chosen", pwhere, p.Name))
		}
		for k, ref := range p.Packages {
			checkRef(fmt.Sprintf("%s.packages[%d]", pwhere, k), ref)
		}
		checkPredicate(pwhere, p.When)
	}

	switch {
	case g.Optional && defaults > 0:
		errs = append(errs, fmt.Errorf("%s: optional group %q must not have a default provider", where, g.Capability))
	case !g.Optional && defaults != 1:
		errs = append(errs, fmt.Errorf("%s: group %q needs exactly one default provider, found %d", where, g.Capability, defaults))
	}
	return errs
}
