// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gammamatrix/homebrew-apache/internal/app/pipeline"
	"github.com/gammamatrix/homebrew-apache/pkg/plan"
	"github.com/gammamatrix/homebrew-apache/pkg/service"
)

type (
	// planView is the serialized form of a plan printed by 'keg plan -o'.
	planView struct {
		Formula      string              `json:"formula" yaml:"formula"`
		Version      string              `json:"version" yaml:"version"`
		Options      map[string]bool     `json:"options" yaml:"options"`
		Providers    []providerView      `json:"providers" yaml:"providers"`
		Dependencies []dependencyView    `json:"dependencies" yaml:"dependencies"`
		Args         []string            `json:"args" yaml:"args"`
		Layout       []roleView          `json:"layout" yaml:"layout"`
		Service      *service.Descriptor `json:"service,omitempty" yaml:"service,omitempty"`
		Caveats      []string            `json:"caveats,omitempty" yaml:"caveats,omitempty"`
		Fingerprint  string              `json:"fingerprint" yaml:"fingerprint"`
	}

	providerView struct {
		Capability string `json:"capability" yaml:"capability"`
		Provider   string `json:"provider,omitempty" yaml:"provider,omitempty"`
		Defaulted  bool   `json:"defaulted" yaml:"defaulted"`
	}

	dependencyView struct {
		Name       string `json:"name" yaml:"name"`
		Version    string `json:"version,omitempty" yaml:"version,omitempty"`
		Capability string `json:"capability,omitempty" yaml:"capability,omitempty"`
	}

	roleView struct {
		Role string `json:"role" yaml:"role"`
		Path string `json:"path" yaml:"path"`
	}
)

func newPlanCommand(app *App) *cobra.Command {
	var (
		ff     formulaFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "plan [formula]",
		Short: "Show what an install would do, without doing it",
		Long: `Show what an install would do, without doing it.

Prints the selected options, the chosen providers, the active dependencies,
the ordered configure arguments and the resolved layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return commandError("parse flags", "--output", err)
			}

			s, pl, err := app.planFormula(cmd.Context(), args, &ff, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := writePlan(cmd.OutOrStdout(), pl, format); err != nil {
				return commandError("print plan", string(pl.Formula.Name), err)
			}
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", string(outputText), "output format: text, yaml or json")
	return cmd
}

func newLayoutCommand(app *App) *cobra.Command {
	var ff formulaFlags

	cmd := &cobra.Command{
		Use:   "layout [formula]",
		Short: "Print the resolved layout file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, pl, err := app.planFormula(cmd.Context(), args, &ff, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			fmt.Fprint(cmd.OutOrStdout(), pl.Layout.File())
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func newServiceCommand(app *App) *cobra.Command {
	var (
		ff    formulaFlags
		write bool
	)

	cmd := &cobra.Command{
		Use:   "service [formula]",
		Short: "Print or write the launchd service plist",
		Long: `Print the launchd service plist of a formula.

With --write the plist is written into the keg at the path the formula's
layout names, ready to be loaded with launchctl.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, pl, err := app.planFormula(cmd.Context(), args, &ff, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			name := string(pl.Formula.Name)
			if pl.Service == nil {
				return commandError("render service", name, service.ErrNoService)
			}
			doc, err := pl.Service.Plist()
			if err != nil {
				return commandError("render service", name, err)
			}

			if !write {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}

			path := pl.Vars["plist_path"]
			if err := writeFile(app.FS, path, doc); err != nil {
				return commandError("write service", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			writeCaveats(cmd.OutOrStdout(), pl.Caveats)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&write, "write", false, "write the plist into the keg instead of printing it")
	return cmd
}

// writeFile replaces path with content, creating parent directories.
func writeFile(fsys afero.Fs, path, content string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, []byte(content), 0o644)
}

func newPlanView(pl *pipeline.Plan) planView {
	v := planView{
		Formula:     string(pl.Formula.Name),
		Version:     pl.Formula.Version,
		Options:     pl.Selected.Map(),
		Args:        plan.Strings(pl.Args),
		Service:     pl.Service,
		Caveats:     pl.Caveats,
		Fingerprint: pl.Fingerprint,
	}
	for _, c := range pl.Resolution.Choices {
		pv := providerView{Capability: c.Capability, Defaulted: c.Defaulted}
		if c.Provider != nil {
			pv.Provider = c.Provider.Name
		}
		v.Providers = append(v.Providers, pv)
	}
	for _, d := range pl.Resolution.Active {
		v.Dependencies = append(v.Dependencies, dependencyView{
			Name:       string(d.Package.Name),
			Version:    d.Package.Version.String(),
			Capability: d.Capability,
		})
	}
	for _, r := range pl.Layout.Roles {
		v.Layout = append(v.Layout, roleView{Role: r.Role, Path: r.Path})
	}
	return v
}

func writePlan(w io.Writer, pl *pipeline.Plan, format outputFormat) error {
	v := newPlanView(pl)

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		writePlanText(w, v)
		return nil
	}
}

func writePlanText(w io.Writer, v planView) {
	fmt.Fprintf(w, "%s %s\n\n", TitleStyle.Render(v.Formula), v.Version)

	fmt.Fprintln(w, SubtitleStyle.Render("Options:"))
	for _, name := range slices.Sorted(maps.Keys(v.Options)) {
		state := VerboseStyle.Render("off")
		if v.Options[name] {
			state = SuccessStyle.Render("on")
		}
		fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(name), state)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Providers:"))
	for _, p := range v.Providers {
		provider := p.Provider
		if provider == "" {
			provider = VerboseStyle.Render("(none)")
		}
		note := ""
		if p.Defaulted {
			note = VerboseStyle.Render(" (default)")
		}
		fmt.Fprintf(w, "  %s: %s%s\n", p.Capability, provider, note)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Dependencies:"))
	if len(v.Dependencies) == 0 {
		fmt.Fprintf(w, "  %s\n", VerboseStyle.Render("(none)"))
	}
	for _, d := range v.Dependencies {
		fmt.Fprintf(w, "  %s\n", d.Name)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Configure arguments:"))
	for _, a := range v.Args {
		fmt.Fprintf(w, "  %s\n", a)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Layout:"))
	for _, r := range v.Layout {
		fmt.Fprintf(w, "  %s: %s\n", r.Role, r.Path)
	}

	for _, c := range v.Caveats {
		fmt.Fprintln(w)
		fmt.Fprintln(w, WarningStyle.Render(c))
	}
}
