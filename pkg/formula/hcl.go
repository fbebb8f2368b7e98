// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gammamatrix/homebrew-apache/pkg/cueutil"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

// The HCL encoding uses labelled blocks instead of lists of objects. Template
// tokens must be written as $${name} because HCL itself interpolates ${...}.
type (
	hclFile struct {
		Formula hclFormula `hcl:"formula,block"`
	}

	hclFormula struct {
		Name         string           `hcl:"name,label"`
		Version      string           `hcl:"version"`
		Description  string           `hcl:"description,optional"`
		Homepage     string           `hcl:"homepage,optional"`
		Source       *hclSource       `hcl:"source,block"`
		Options      []hclOption      `hcl:"option,block"`
		Dependencies []hclDependency  `hcl:"dependency,block"`
		Conflicts    []hclConflict    `hcl:"conflict,block"`
		StaticArgs   []string         `hcl:"static_args,optional"`
		ChoiceGroups []hclChoiceGroup `hcl:"choice_group,block"`
		Layout       hclLayout        `hcl:"layout,block"`
		Patches      []hclPatch       `hcl:"patch,block"`
		Steps        *hclSteps        `hcl:"steps,block"`
		PostInstall  *hclPostInstall  `hcl:"post_install,block"`
		Service      *hclService      `hcl:"service,block"`
		Caveats      []hclCaveat      `hcl:"caveat,block"`
		Test         []string         `hcl:"test,optional"`
	}

	hclSource struct {
		URL    string `hcl:"url,optional"`
		SHA1   string `hcl:"sha1,optional"`
		SHA256 string `hcl:"sha256,optional"`
	}

	hclOption struct {
		Name        string `hcl:"name,label"`
		Description string `hcl:"description,optional"`
		Default     bool   `hcl:"default,optional"`
	}

	hclPackage struct {
		Name    string `hcl:"name,label"`
		Version string `hcl:"version,optional"`
	}

	hclDependency struct {
		Name       string `hcl:"name,label"`
		Version    string `hcl:"version,optional"`
		When       string `hcl:"when,optional"`
		Capability string `hcl:"capability,optional"`
		Provider   string `hcl:"provider,optional"`
	}

	hclConflict struct {
		Name    string `hcl:"name,label"`
		Version string `hcl:"version,optional"`
		Because string `hcl:"because,optional"`
	}

	hclChoiceGroup struct {
		Capability string        `hcl:"capability,label"`
		Optional   bool          `hcl:"optional,optional"`
		Providers  []hclProvider `hcl:"provider,block"`
	}

	hclProvider struct {
		Name     string       `hcl:"name,label"`
		When     string       `hcl:"when,optional"`
		Default  bool         `hcl:"default,optional"`
		Packages []hclPackage `hcl:"package,block"`
		Args     []string     `hcl:"args,optional"`
	}

	hclLayout struct {
		Name  string    `hcl:"name,label"`
		Roles []hclRole `hcl:"role,block"`
	}

	hclRole struct {
		Role string `hcl:"role,label"`
		Path string `hcl:"path"`
	}

	hclPatch struct {
		File string `hcl:"file,label"`
		Old  string `hcl:"old"`
		New  string `hcl:"new"`
	}

	hclSteps struct {
		Configure string `hcl:"configure,optional"`
		Build     string `hcl:"build,optional"`
		Install   string `hcl:"install,optional"`
	}

	hclPostInstall struct {
		Dirs  []string `hcl:"dirs,optional"`
		Touch []string `hcl:"touch,optional"`
	}

	hclService struct {
		Label     string   `hcl:"label,optional"`
		Command   []string `hcl:"command"`
		RunAtLoad bool     `hcl:"run_at_load,optional"`
		KeepAlive bool     `hcl:"keep_alive,optional"`
	}

	hclCaveat struct {
		When string `hcl:"when,optional"`
		Text string `hcl:"text"`
	}
)

func parseHCL(data []byte, filename string) (*Formula, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL formula %s: %w", filename, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL formula %s: %w", filename, diags)
	}
	return parsed.Formula.toFormula(), nil
}

func (h hclFormula) toFormula() *Formula {
	f := &Formula{
		Name:        types.PackageName(h.Name),
		Version:     h.Version,
		Description: types.DescriptionText(h.Description),
		Homepage:    h.Homepage,
		StaticArgs:  h.StaticArgs,
		Layout:      layout.Template{Name: h.Layout.Name},
		Test:        h.Test,
	}
	if h.Source != nil {
		f.Source = Source{URL: h.Source.URL, SHA1: h.Source.SHA1, SHA256: h.Source.SHA256}
	}
	for _, o := range h.Options {
		f.Options = append(f.Options, options.Spec{
			Name:        o.Name,
			Description: types.DescriptionText(o.Description),
			Default:     o.Default,
		})
	}
	for _, d := range h.Dependencies {
		f.Dependencies = append(f.Dependencies, DependencyEdge{
			Package:    PackageRef{Name: types.PackageName(d.Name), Version: VersionConstraint(d.Version)},
			When:       Predicate(d.When),
			Capability: d.Capability,
			Provider:   d.Provider,
		})
	}
	for _, c := range h.Conflicts {
		f.Conflicts = append(f.Conflicts, ConflictRule{
			Package: PackageRef{Name: types.PackageName(c.Name), Version: VersionConstraint(c.Version)},
			Because: c.Because,
		})
	}
	for _, g := range h.ChoiceGroups {
		group := ChoiceGroup{Capability: g.Capability, Optional: g.Optional}
		for _, p := range g.Providers {
			provider := Provider{Name: p.Name, When: Predicate(p.When), Default: p.Default, Args: p.Args}
			for _, pkg := range p.Packages {
				provider.Packages = append(provider.Packages, PackageRef{
					Name:    types.PackageName(pkg.Name),
					Version: VersionConstraint(pkg.Version),
				})
			}
			group.Providers = append(group.Providers, provider)
		}
		f.ChoiceGroups = append(f.ChoiceGroups, group)
	}
	for _, r := range h.Layout.Roles {
		f.Layout.Roles = append(f.Layout.Roles, layout.Role{Role: r.Role, Path: r.Path})
	}
	for _, p := range h.Patches {
		f.Patches = append(f.Patches, Patch{File: p.File, Old: p.Old, New: p.New})
	}
	if h.Steps != nil {
		f.Steps = Steps{Configure: h.Steps.Configure, Build: h.Steps.Build, Install: h.Steps.Install}
	}
	if h.PostInstall != nil {
		f.PostInstall = PostInstall{Dirs: h.PostInstall.Dirs, Touch: h.PostInstall.Touch}
	}
	if h.Service != nil {
		f.Service = &ServiceSpec{
			Label:     h.Service.Label,
			Command:   h.Service.Command,
			RunAtLoad: h.Service.RunAtLoad,
			KeepAlive: h.Service.KeepAlive,
		}
	}
	for _, c := range h.Caveats {
		// Heredocs always end in a newline; the other encodings do not.
		f.Caveats = append(f.Caveats, Caveat{When: Predicate(c.When), Text: strings.TrimSuffix(c.Text, "\n")})
	}
	return f
}
