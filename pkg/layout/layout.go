// SPDX-License-Identifier: MPL-2.0

package layout

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gammamatrix/homebrew-apache/internal/dag"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

type (
	// Template is a named, ordered set of path roles.
	Template struct {
		Name  string `json:"name" toml:"name"`
		Roles []Role `json:"roles" toml:"roles"`
	}

	// Role is one entry of a Template. Path may contain ${role} and
	// ${binding} tokens.
	Role struct {
		Role string `json:"role" toml:"role"`
		Path string `json:"path" toml:"path"`
	}

	// Resolved is a Template whose roles are all absolute paths.
	Resolved struct {
		Name  string
		Roles []Role
		index map[string]int
	}
)

// Validate checks that the template is named and that every role is
// non-empty and declared once.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: layout name must not be empty", ErrInvalidTemplate)
	}
	seen := make(map[string]bool, len(t.Roles))
	for i, r := range t.Roles {
		if strings.TrimSpace(r.Role) == "" {
			return fmt.Errorf("%w: roles[%d] has no name", ErrInvalidTemplate, i)
		}
		if seen[r.Role] {
			return fmt.Errorf("%w: role %q declared more than once", ErrInvalidTemplate, r.Role)
		}
		seen[r.Role] = true
	}
	return nil
}

// Render substitutes tokens in the template until every role is resolved.
// A token is looked up among the template's roles first and then among
// bindings. Each pass settles at least one more role when the references
// are acyclic, so Render gives up after len(Roles) passes and reports the
// cycle. Binding values must be absolute paths without tokens.
func Render(tmpl Template, bindings map[string]string) (*Resolved, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if err := validateBindings(bindings); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(tmpl.Roles))
	for _, r := range tmpl.Roles {
		values[r.Role] = r.Path
	}

	for _, r := range tmpl.Roles {
		for _, ref := range References(r.Path) {
			if _, isRole := values[ref]; isRole {
				continue
			}
			if _, isBinding := bindings[ref]; !isBinding {
				return nil, &UndefinedReferenceError{Role: r.Role, Reference: ref}
			}
		}
	}

	lookup := func(name string) (string, bool) {
		if v, isRole := values[name]; isRole {
			if HasTokens(v) {
				return "", false
			}
			return v, true
		}
		v, ok := bindings[name]
		return v, ok
	}

	for pass := 0; pass < len(tmpl.Roles); pass++ {
		pending := 0
		for _, r := range tmpl.Roles {
			current := values[r.Role]
			if !HasTokens(current) {
				continue
			}
			expanded, err := Expand(current, lookup)
			if err != nil {
				var undef *UndefinedReferenceError
				if !errors.As(err, &undef) {
					return nil, err
				}
				// The reference is a role that is still pending.
				pending++
				continue
			}
			values[r.Role] = expanded
			if HasTokens(expanded) {
				pending++
			}
		}
		if pending == 0 {
			break
		}
	}

	if err := unresolved(tmpl, values); err != nil {
		return nil, err
	}

	resolved := &Resolved{Name: tmpl.Name, index: make(map[string]int, len(tmpl.Roles))}
	for i, r := range tmpl.Roles {
		path := values[r.Role]
		if ok, _ := types.AbsolutePath(path).IsValid(); !ok {
			return nil, &RelativePathError{Role: r.Role, Path: path}
		}
		resolved.Roles = append(resolved.Roles, Role{Role: r.Role, Path: path})
		resolved.index[r.Role] = i
	}
	return resolved, nil
}

// unresolved builds the reference graph of the roles that still hold tokens
// and reports the cycle among them.
func unresolved(tmpl Template, values map[string]string) error {
	g := dag.New()
	for _, r := range tmpl.Roles {
		for _, ref := range References(values[r.Role]) {
			if _, isRole := values[ref]; isRole {
				g.AddEdge(ref, r.Role)
			}
		}
	}
	if g.Len() == 0 {
		return nil
	}
	if _, err := g.TopologicalSort(); err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return &CyclicReferenceError{Roles: cycleErr.Cycle}
		}
		return err
	}
	// Every pending role waits on another pending role, so an acyclic
	// remainder cannot happen; report everything that is left.
	var roles []string
	for _, r := range tmpl.Roles {
		if HasTokens(values[r.Role]) {
			roles = append(roles, r.Role)
		}
	}
	return &CyclicReferenceError{Roles: roles}
}

// Get returns the resolved path of role.
func (r *Resolved) Get(role string) (string, bool) {
	i, ok := r.index[role]
	if !ok {
		return "", false
	}
	return r.Roles[i].Path, true
}

// Vars returns the resolved roles as expansion variables.
func (r *Resolved) Vars() Vars {
	vars := make(Vars, len(r.Roles))
	for _, role := range r.Roles {
		vars[role.Role] = role.Path
	}
	return vars
}

// File renders the layout block consumed by the external build system:
//
//	<Layout Homebrew>
//	    prefix:        /usr/local/Cellar/httpd22/2.2.27
//	    ...
//	</Layout>
func (r *Resolved) File() string {
	width := 0
	for _, role := range r.Roles {
		width = max(width, len(role.Role)+1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<Layout %s>\n", r.Name)
	for _, role := range r.Roles {
		fmt.Fprintf(&b, "    %-*s %s\n", width, role.Role+":", role.Path)
	}
	b.WriteString("</Layout>\n")
	return b.String()
}

func validateBindings(bindings map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		v := bindings[name]
		if ok, _ := types.AbsolutePath(v).IsValid(); !ok || HasTokens(v) {
			return &InvalidBindingError{Name: name, Value: v}
		}
	}
	return nil
}
