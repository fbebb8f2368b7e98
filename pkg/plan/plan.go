// SPDX-License-Identifier: MPL-2.0

// Package plan assembles the ordered configure arguments from the static
// feature flags and the providers chosen by the resolver.
package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/resolve"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

var (
	// ErrUnresolvedProviderPath is the sentinel error wrapped by UnresolvedProviderPathError.
	ErrUnresolvedProviderPath = errors.New("provider install path not found")
	// ErrStaleResolution is returned when a resolution does not belong to
	// the selected options or the groups it is assembled with.
	ErrStaleResolution = errors.New("resolution does not match the selected options")
)

const optTokenPrefix = "opt:"

type (
	// BuildArg is one argument passed to the configure step.
	BuildArg string

	// Locator finds where packages are installed.
	Locator interface {
		// OptPrefix returns the stable install prefix of an installed
		// package, or false when it is not installed.
		OptPrefix(name types.PackageName) (string, bool)
		// SDKPath returns the SDK root; empty means the host root.
		SDKPath() string
	}

	// UnresolvedProviderPathError is returned when a chosen provider's
	// package has no install prefix.
	UnresolvedProviderPathError struct {
		Capability string
		Provider   string
		Package    types.PackageName
	}
)

// Assemble returns the static arguments followed by one block per choice
// group, in group declaration order. ${opt:<package>} expands to the
// package's opt prefix and ${sdk} to the SDK root. Exact duplicates are
// dropped, keeping the first occurrence. The result depends only on the
// inputs.
func Assemble(sel options.Selected, res *resolve.Resolution, staticArgs []string, groups []formula.ChoiceGroup, locator Locator) ([]BuildArg, error) {
	args := make([]BuildArg, 0, len(staticArgs)+2*len(groups))
	seen := make(map[BuildArg]bool)
	add := func(a BuildArg) {
		if !seen[a] {
			seen[a] = true
			args = append(args, a)
		}
	}

	sdk := sdkRoot(locator.SDKPath())
	for _, raw := range staticArgs {
		expanded, err := layout.Expand(raw, layout.Vars{"sdk": sdk}.Lookup)
		if err != nil {
			return nil, fmt.Errorf("static argument %q: %w", raw, err)
		}
		add(BuildArg(expanded))
	}

	for _, g := range groups {
		choice, ok := res.Chosen(g.Capability)
		if !ok {
			return nil, fmt.Errorf("%w: no choice for capability %q", ErrStaleResolution, g.Capability)
		}
		if choice.Provider == nil {
			if !g.Optional {
				return nil, fmt.Errorf("%w: required capability %q has no provider", ErrStaleResolution, g.Capability)
			}
			continue
		}
		p := choice.Provider
		if !choice.Defaulted && !p.When.Holds(sel) {
			return nil, fmt.Errorf("%w: provider %q of %q is not requested", ErrStaleResolution, p.Name, g.Capability)
		}

		lookup := func(name string) (string, bool) {
			if name == "sdk" {
				return sdk, true
			}
			pkg, ok := strings.CutPrefix(name, optTokenPrefix)
			if !ok {
				return "", false
			}
			return locator.OptPrefix(types.PackageName(pkg))
		}

		for _, raw := range p.Args {
			expanded, err := layout.Expand(raw, lookup)
			if err != nil {
				var undef *layout.UndefinedReferenceError
				if errors.As(err, &undef) {
					if pkg, isOpt := strings.CutPrefix(undef.Reference, optTokenPrefix); isOpt {
						return nil, &UnresolvedProviderPathError{Capability: g.Capability, Provider: p.Name, Package: types.PackageName(pkg)}
					}
				}
				return nil, fmt.Errorf("capability %q provider %q argument %q: %w", g.Capability, p.Name, raw, err)
			}
			add(BuildArg(expanded))
		}
	}
	return args, nil
}

// sdkRoot normalizes the SDK path so "${sdk}/usr" never yields "//usr".
func sdkRoot(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Clean(path), "/")
}

// Strings converts args to plain strings for exec.
func Strings(args []BuildArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

// Error implements the error interface.
func (e *UnresolvedProviderPathError) Error() string {
	return fmt.Sprintf("capability %q provider %q needs %s, but it is not installed", e.Capability, e.Provider, e.Package)
}

// Unwrap returns ErrUnresolvedProviderPath for errors.Is() compatibility.
func (e *UnresolvedProviderPathError) Unwrap() error { return ErrUnresolvedProviderPath }
