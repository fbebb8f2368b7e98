// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"fmt"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

const (
	// DefaultConfigure is the configure step used when a formula sets none.
	DefaultConfigure = "./configure"
	// DefaultBuild is the build step used when a formula sets none.
	DefaultBuild = "make"
	// DefaultInstall is the install step used when a formula sets none.
	DefaultInstall = "make install"
)

type (
	// Formula is a declarative build recipe. It is immutable once loaded;
	// every derived value (active dependencies, arguments, layout, service
	// descriptor) is computed from it and the selected options.
	Formula struct {
		Name         types.PackageName     `json:"name" toml:"name"`
		Version      string                `json:"version" toml:"version"`
		Description  types.DescriptionText `json:"description,omitempty" toml:"description,omitempty"`
		Homepage     string                `json:"homepage,omitempty" toml:"homepage,omitempty"`
		Source       Source                `json:"source,omitempty" toml:"source,omitempty"`
		Options      []options.Spec        `json:"options,omitempty" toml:"options,omitempty"`
		Dependencies []DependencyEdge      `json:"dependencies,omitempty" toml:"dependencies,omitempty"`
		Conflicts    []ConflictRule        `json:"conflicts,omitempty" toml:"conflicts,omitempty"`
		StaticArgs   []string              `json:"static_args,omitempty" toml:"static_args,omitempty"`
		ChoiceGroups []ChoiceGroup         `json:"choice_groups,omitempty" toml:"choice_groups,omitempty"`
		Layout       layout.Template       `json:"layout" toml:"layout"`
		Patches      []Patch               `json:"patches,omitempty" toml:"patches,omitempty"`
		Steps        Steps                 `json:"steps,omitempty" toml:"steps,omitempty"`
		PostInstall  PostInstall           `json:"post_install,omitempty" toml:"post_install,omitempty"`
		Service      *ServiceSpec          `json:"service,omitempty" toml:"service,omitempty"`
		Caveats      []Caveat              `json:"caveats,omitempty" toml:"caveats,omitempty"`
		Test         []string              `json:"test,omitempty" toml:"test,omitempty"`
	}

	// Source records where the source archive comes from. keg does not
	// fetch; the fields are informational.
	Source struct {
		URL    string `json:"url,omitempty" toml:"url,omitempty"`
		SHA1   string `json:"sha1,omitempty" toml:"sha1,omitempty"`
		SHA256 string `json:"sha256,omitempty" toml:"sha256,omitempty"`
	}

	// PackageRef names a package and optionally constrains its version.
	PackageRef struct {
		Name    types.PackageName `json:"name" toml:"name"`
		Version VersionConstraint `json:"version,omitempty" toml:"version,omitempty"`
	}

	// ConflictRule forbids installing the formula while Package is installed.
	ConflictRule struct {
		Package PackageRef `json:"package" toml:"package"`
		Because string     `json:"because,omitempty" toml:"because,omitempty"`
	}

	// DependencyEdge is a dependency that is active when When holds. Edges
	// derived from a chosen provider carry its Capability and Provider.
	DependencyEdge struct {
		Package    PackageRef `json:"package" toml:"package"`
		When       Predicate  `json:"when,omitempty" toml:"when,omitempty"`
		Capability string     `json:"capability,omitempty" toml:"capability,omitempty"`
		Provider   string     `json:"provider,omitempty" toml:"provider,omitempty"`
	}

	// ChoiceGroup is a set of mutually exclusive providers for one
	// capability. A required group has exactly one default provider; an
	// optional group has none and contributes nothing when no provider is
	// requested.
	ChoiceGroup struct {
		Capability string     `json:"capability" toml:"capability"`
		Optional   bool       `json:"optional,omitempty" toml:"optional,omitempty"`
		Providers  []Provider `json:"providers" toml:"providers"`
	}

	// Provider is one way of satisfying a capability. It is requested when
	// When is set and holds.
	Provider struct {
		Name     string       `json:"name" toml:"name"`
		When     Predicate    `json:"when,omitempty" toml:"when,omitempty"`
		Default  bool         `json:"default,omitempty" toml:"default,omitempty"`
		Packages []PackageRef `json:"packages,omitempty" toml:"packages,omitempty"`
		Args     []string     `json:"args,omitempty" toml:"args,omitempty"`
	}

	// Patch is an in-place edit of a source file applied before configure.
	Patch struct {
		File string `json:"file" toml:"file"`
		Old  string `json:"old" toml:"old"`
		New  string `json:"new" toml:"new"`
	}

	// Steps are the shell-word command lines of the external build steps.
	Steps struct {
		Configure string `json:"configure,omitempty" toml:"configure,omitempty"`
		Build     string `json:"build,omitempty" toml:"build,omitempty"`
		Install   string `json:"install,omitempty" toml:"install,omitempty"`
	}

	// PostInstall lists runtime directories and files to create after install.
	PostInstall struct {
		Dirs  []string `json:"dirs,omitempty" toml:"dirs,omitempty"`
		Touch []string `json:"touch,omitempty" toml:"touch,omitempty"`
	}

	// ServiceSpec describes the launchd service. Command entries are
	// templated; Label defaults to "homebrew.mxcl.<name>".
	ServiceSpec struct {
		Label     string   `json:"label,omitempty" toml:"label,omitempty"`
		Command   []string `json:"command" toml:"command"`
		RunAtLoad bool     `json:"run_at_load,omitempty" toml:"run_at_load,omitempty"`
		KeepAlive bool     `json:"keep_alive,omitempty" toml:"keep_alive,omitempty"`
	}

	// Caveat is post-install guidance shown when When holds.
	Caveat struct {
		When Predicate `json:"when,omitempty" toml:"when,omitempty"`
		Text string    `json:"text" toml:"text"`
	}
)

// String renders "name" or "name (constraint)".
func (r PackageRef) String() string {
	if r.Version.IsZero() {
		return string(r.Name)
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Version)
}

// WithDefaults returns the steps with unset entries replaced by the
// ./configure, make, make install defaults.
func (s Steps) WithDefaults() Steps {
	if strings.TrimSpace(s.Configure) == "" {
		s.Configure = DefaultConfigure
	}
	if strings.TrimSpace(s.Build) == "" {
		s.Build = DefaultBuild
	}
	if strings.TrimSpace(s.Install) == "" {
		s.Install = DefaultInstall
	}
	return s
}

// ServiceLabel returns the launchd label of the formula's service.
func (f *Formula) ServiceLabel() string {
	if f.Service != nil && f.Service.Label != "" {
		return f.Service.Label
	}
	return "homebrew.mxcl." + string(f.Name)
}

// Registry builds the option registry for the formula.
func (f *Formula) Registry() (*options.Registry, error) {
	return options.NewRegistry(f.Options...)
}

// Group returns the choice group for capability.
func (f *Formula) Group(capability string) (ChoiceGroup, bool) {
	for _, g := range f.ChoiceGroups {
		if g.Capability == capability {
			return g, true
		}
	}
	return ChoiceGroup{}, false
}

// DefaultProvider returns the group's default provider, if any.
func (g ChoiceGroup) DefaultProvider() (Provider, bool) {
	for _, p := range g.Providers {
		if p.Default {
			return p, true
		}
	}
	return Provider{}, false
}
