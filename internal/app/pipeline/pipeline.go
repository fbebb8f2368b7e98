// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/internal/cellar"
	"github.com/gammamatrix/homebrew-apache/internal/install"
	"github.com/gammamatrix/homebrew-apache/internal/receipt"
	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/plan"
	"github.com/gammamatrix/homebrew-apache/pkg/resolve"
	"github.com/gammamatrix/homebrew-apache/pkg/service"
)

// ErrMissingDependency is the sentinel error wrapped by MissingDependencyError.
var ErrMissingDependency = errors.New("dependency not installed")

type (
	// Pipeline plans and installs formulas against one prefix.
	Pipeline struct {
		fs     afero.Fs
		cellar *cellar.Cellar
		runner install.Runner
		store  *receipt.Store
	}

	// Plan is the fully derived install plan of one formula.
	Plan struct {
		Formula    *formula.Formula
		Selected   options.Selected
		Resolution *resolve.Resolution
		Args       []plan.BuildArg
		Bindings   map[string]string
		Layout     *layout.Resolved
		Vars       layout.Vars
		// Service is nil when the formula declares none.
		Service *service.Descriptor
		Caveats []string
		Patches []install.Patch
		Dirs    []string
		Files   []string
		Test    []string
		// Fingerprint identifies the installed bytes; see receipt.Fingerprint.
		Fingerprint string
	}

	// InstallOptions controls Install.
	InstallOptions struct {
		SourceDir string
		// Force runs the build steps even when an identical receipt exists.
		Force bool
	}

	// Outcome reports what Install did.
	Outcome struct {
		Result  *install.Result
		Receipt *receipt.Receipt
		// Skipped is true when the build steps were skipped.
		Skipped bool
	}

	// MissingDependencyError is returned when an active dependency is not
	// installed.
	MissingDependencyError struct {
		Dependency formula.DependencyEdge
	}
)

// New returns a Pipeline. store may be nil, which disables receipts.
func New(fsys afero.Fs, c *cellar.Cellar, runner install.Runner, store *receipt.Store) *Pipeline {
	return &Pipeline{fs: fsys, cellar: c, runner: runner, store: store}
}

// Plan derives everything needed to install f with the given option
// overrides. An unknown option fails before anything else is computed.
func (p *Pipeline) Plan(f *formula.Formula, overrides map[string]bool) (*Plan, error) {
	reg, err := f.Registry()
	if err != nil {
		return nil, err
	}
	sel, err := reg.Resolve(overrides)
	if err != nil {
		return nil, err
	}
	slog.Debug("resolved options", "formula", f.Name, "on", sel.On())

	res, err := resolve.Resolve(sel, f.Dependencies, f.ChoiceGroups, f.Conflicts, p.cellar)
	if err != nil {
		return nil, err
	}
	for _, dep := range res.Active {
		if dep.Capability != "" {
			continue
		}
		if _, ok := p.cellar.Lookup(dep.Package.Name); !ok {
			return nil, &MissingDependencyError{Dependency: dep}
		}
	}

	args, err := plan.Assemble(sel, res, f.StaticArgs, f.ChoiceGroups, p.cellar)
	if err != nil {
		return nil, err
	}

	bindings := p.cellar.Bindings(f.Name, f.Version)
	resolved, err := layout.Render(f.Layout, bindings)
	if err != nil {
		return nil, fmt.Errorf("render layout %s: %w", f.Layout.Name, err)
	}
	vars := service.Vars(f, resolved, bindings)

	pl := &Plan{
		Formula:    f,
		Selected:   sel,
		Resolution: res,
		Args:       args,
		Bindings:   bindings,
		Layout:     resolved,
		Vars:       vars,
	}

	if f.Service != nil {
		if pl.Service, err = service.Render(f, vars.Lookup, sel); err != nil {
			return nil, err
		}
		pl.Caveats = pl.Service.Caveats
	} else if pl.Caveats, err = service.Caveats(f, vars.Lookup, sel); err != nil {
		return nil, err
	}

	for _, patch := range f.Patches {
		expanded, err := layout.Expand(patch.New, vars.Lookup)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", patch.File, err)
		}
		pl.Patches = append(pl.Patches, install.Patch{File: patch.File, Old: patch.Old, New: expanded})
	}
	if pl.Dirs, err = expandAll(f.PostInstall.Dirs, vars); err != nil {
		return nil, fmt.Errorf("post-install directory: %w", err)
	}
	if pl.Files, err = expandAll(f.PostInstall.Touch, vars); err != nil {
		return nil, fmt.Errorf("post-install file: %w", err)
	}
	if pl.Test, err = expandAll(f.Test, vars); err != nil {
		return nil, fmt.Errorf("test command: %w", err)
	}

	pl.Fingerprint = receipt.Fingerprint(string(f.Name), f.Version, plan.Strings(args), resolved.File())
	return pl, nil
}

// Install runs the plan. With a receipt store configured, an identical
// earlier install whose keg still exists skips the build steps unless
// Force is set; the fixups always run.
func (p *Pipeline) Install(ctx context.Context, pl *Plan, opts InstallOptions) (*Outcome, error) {
	f := pl.Formula
	out := &Outcome{}

	if p.store != nil && !opts.Force && p.cellar.HasKeg(f.Name, f.Version) {
		prev, err := p.store.Find(ctx, string(f.Name), pl.Fingerprint)
		switch {
		case err == nil:
			slog.Info("found identical install", "formula", f.Name, "receipt", prev.ID)
			out.Skipped = true
			out.Receipt = prev
		case !errors.Is(err, receipt.ErrNotFound):
			return nil, err
		}
	}

	steps := f.Steps.WithDefaults()
	executor := install.NewExecutor(p.fs, p.runner)
	res, err := executor.Execute(ctx, &install.Plan{
		SourceDir:  opts.SourceDir,
		Patches:    pl.Patches,
		LayoutFile: pl.Layout.File(),
		Commands: install.Commands{
			Configure: steps.Configure,
			Build:     steps.Build,
			Install:   steps.Install,
		},
		Args:      plan.Strings(pl.Args),
		Dirs:      pl.Dirs,
		Files:     pl.Files,
		SkipBuild: out.Skipped,
	})
	out.Result = res
	if err != nil {
		return out, err
	}

	if p.store != nil && !out.Skipped {
		r := receipt.New(string(f.Name), f.Version, pl.Bindings["keg"], pl.Selected.On(), plan.Strings(pl.Args), pl.Fingerprint)
		if err := p.store.Save(ctx, r); err != nil {
			return out, err
		}
		out.Receipt = &r
	}
	return out, nil
}

// Fixup creates the plan's missing runtime directories and log files.
func (p *Pipeline) Fixup(pl *Plan) ([]string, error) {
	dirs, err := install.EnsureDirs(p.fs, pl.Dirs)
	if err != nil {
		return dirs, err
	}
	files, err := install.EnsureFiles(p.fs, pl.Files)
	return append(dirs, files...), err
}

// RunTest runs the formula's smoke test.
func (p *Pipeline) RunTest(ctx context.Context, pl *Plan) error {
	if len(pl.Test) == 0 {
		return fmt.Errorf("%s declares no test", pl.Formula.Name)
	}
	code, err := p.runner.Run(ctx, pl.Bindings["keg"], pl.Test)
	if err != nil || !code.IsSuccess() {
		return &install.ExternalStepError{Step: "test", ExitCode: code, Err: err}
	}
	return nil
}

func expandAll(in []string, vars layout.Vars) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		expanded, err := layout.Expand(s, vars.Lookup)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, expanded)
	}
	return out, nil
}

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency %s is not installed", e.Dependency.Package)
}

// Unwrap returns ErrMissingDependency for errors.Is() compatibility.
func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }
