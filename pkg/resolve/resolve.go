// SPDX-License-Identifier: MPL-2.0

// Package resolve selects one provider per choice group, computes the active
// dependency set and checks conflict rules against the installed packages.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

var (
	// ErrConflict is the sentinel error wrapped by ConflictError.
	ErrConflict = errors.New("conflicting package installed")
	// ErrAmbiguousProvider is the sentinel error wrapped by AmbiguousProviderError.
	ErrAmbiguousProvider = errors.New("ambiguous provider selection")
)

type (
	// Installed describes one package present in the installed universe.
	Installed struct {
		Name     types.PackageName
		Versions []string
	}

	// Universe is the externally supplied set of installed packages.
	Universe interface {
		Lookup(name types.PackageName) (Installed, bool)
	}

	// Choice records the provider chosen for a capability. Provider is nil
	// for an optional group nobody asked for.
	Choice struct {
		Capability string
		Provider   *formula.Provider
		Defaulted  bool
	}

	// Resolution is the result of Resolve.
	Resolution struct {
		// Choices holds one entry per choice group, in declaration order.
		Choices []Choice
		// Active holds the active dependencies, de-duplicated by package
		// name in first-seen order.
		Active []formula.DependencyEdge
	}

	// ConflictError is returned when a conflicting package is installed.
	ConflictError struct {
		Package   formula.PackageRef
		Installed Installed
		Because   string
	}

	// AmbiguousProviderError is returned when the selected options request
	// more than one provider for the same capability.
	AmbiguousProviderError struct {
		Capability string
		Providers  []string
	}

	// Set is a Universe backed by a map.
	Set map[types.PackageName][]string
)

// Lookup implements Universe.
func (s Set) Lookup(name types.PackageName) (Installed, bool) {
	versions, ok := s[name]
	if !ok {
		return Installed{}, false
	}
	return Installed{Name: name, Versions: versions}, true
}

// Resolve picks providers, collects active dependencies and checks
// conflicts. It is pure: the same inputs always give the same Resolution.
func Resolve(sel options.Selected, edges []formula.DependencyEdge, groups []formula.ChoiceGroup, conflicts []formula.ConflictRule, universe Universe) (*Resolution, error) {
	res := &Resolution{Choices: make([]Choice, 0, len(groups))}
	for _, g := range groups {
		choice, err := choose(sel, g)
		if err != nil {
			return nil, err
		}
		res.Choices = append(res.Choices, choice)
	}

	active, err := activeEdges(sel, edges, res.Choices)
	if err != nil {
		return nil, err
	}
	res.Active = active

	if universe != nil {
		if err := checkConflicts(conflicts, universe); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// choose applies the selection rule for one group: exactly one requested
// provider wins, none falls back to the default (the bundled or system
// provider), more than one is an error.
func choose(sel options.Selected, g formula.ChoiceGroup) (Choice, error) {
	var requested []int
	for i, p := range g.Providers {
		if !p.When.IsZero() && p.When.Holds(sel) {
			requested = append(requested, i)
		}
	}

	switch len(requested) {
	case 0:
		for i, p := range g.Providers {
			if p.Default {
				return Choice{Capability: g.Capability, Provider: &g.Providers[i], Defaulted: true}, nil
			}
		}
		return Choice{Capability: g.Capability}, nil
	case 1:
		return Choice{Capability: g.Capability, Provider: &g.Providers[requested[0]]}, nil
	default:
		names := make([]string, len(requested))
		for i, idx := range requested {
			names[i] = g.Providers[idx].Name
		}
		return Choice{}, &AmbiguousProviderError{Capability: g.Capability, Providers: names}
	}
}

func activeEdges(sel options.Selected, edges []formula.DependencyEdge, choices []Choice) ([]formula.DependencyEdge, error) {
	var candidates []formula.DependencyEdge
	for _, e := range edges {
		if e.When.Holds(sel) {
			candidates = append(candidates, e)
		}
	}
	for _, c := range choices {
		if c.Provider == nil {
			continue
		}
		for _, pkg := range c.Provider.Packages {
			candidates = append(candidates, formula.DependencyEdge{
				Package:    pkg,
				Capability: c.Capability,
				Provider:   c.Provider.Name,
			})
		}
	}

	providerOf := make(map[string]string)
	seen := make(map[types.PackageName]bool)
	var active []formula.DependencyEdge
	for _, e := range candidates {
		if e.Capability != "" && e.Provider != "" {
			if prev, ok := providerOf[e.Capability]; ok && prev != e.Provider {
				return nil, &AmbiguousProviderError{Capability: e.Capability, Providers: []string{prev, e.Provider}}
			}
			providerOf[e.Capability] = e.Provider
		}
		if seen[e.Package.Name] {
			continue
		}
		seen[e.Package.Name] = true
		active = append(active, e)
	}
	return active, nil
}

func checkConflicts(conflicts []formula.ConflictRule, universe Universe) error {
	for _, rule := range conflicts {
		installed, ok := universe.Lookup(rule.Package.Name)
		if !ok {
			continue
		}
		if rule.Package.Version.IsZero() {
			return &ConflictError{Package: rule.Package, Installed: installed, Because: rule.Because}
		}
		for _, v := range installed.Versions {
			match, err := rule.Package.Version.Matches(v)
			if err != nil {
				return err
			}
			if match {
				return &ConflictError{Package: rule.Package, Installed: installed, Because: rule.Because}
			}
		}
		slog.Debug("installed package outside conflict range",
			"package", rule.Package.Name, "constraint", rule.Package.Version, "versions", installed.Versions)
	}
	return nil
}

// Chosen returns the choice for capability.
func (r *Resolution) Chosen(capability string) (Choice, bool) {
	for _, c := range r.Choices {
		if c.Capability == capability {
			return c, true
		}
	}
	return Choice{}, false
}

// Packages returns the names of the active dependencies in order.
func (r *Resolution) Packages() []types.PackageName {
	names := make([]types.PackageName, len(r.Active))
	for i, e := range r.Active {
		names[i] = e.Package.Name
	}
	return names
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("cannot install alongside %s", e.Package.Name)
	if len(e.Installed.Versions) > 0 {
		msg += fmt.Sprintf(" %s", strings.Join(e.Installed.Versions, ", "))
	}
	if e.Because != "" {
		msg += ": " + e.Because
	}
	return msg
}

// Unwrap returns ErrConflict for errors.Is() compatibility.
func (e *ConflictError) Unwrap() error { return ErrConflict }

// Error implements the error interface.
func (e *AmbiguousProviderError) Error() string {
	return fmt.Sprintf("capability %q has more than one provider selected: %s", e.Capability, strings.Join(e.Providers, ", "))
}

// Unwrap returns ErrAmbiguousProvider for errors.Is() compatibility.
func (e *AmbiguousProviderError) Unwrap() error { return ErrAmbiguousProvider }
