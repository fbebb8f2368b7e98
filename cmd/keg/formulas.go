// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
)

func newFormulasCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "formulas",
		Short: "List the formulas keg knows about",
		Long: `List the formulas keg knows about.

Directories under 'formula_paths' in the configuration are searched before
the built-in catalog; a local formula shadows a built-in one of the same name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return commandError("load configuration", app.configPath, err)
			}
			defer func() { _ = s.Close() }()

			entries, err := s.catalog.List()
			if err != nil {
				return commandError("list formulas", "", err)
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				origin := e.Path
				if e.Origin == formula.BuiltinOrigin {
					origin = formula.BuiltinOrigin
				}
				fmt.Fprintf(out, "%s  %s\n", CmdStyle.Render(e.Name), VerboseStyle.Render(origin))
			}
			return nil
		},
	}
}

func newInfoCommand(app *App) *cobra.Command {
	var ff formulaFlags

	cmd := &cobra.Command{
		Use:   "info [formula]",
		Short: "Show a formula's options, dependencies and caveats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return commandError("load configuration", app.configPath, err)
			}
			defer func() { _ = s.Close() }()

			f, err := s.loadFormula(args, ff.file)
			if err != nil {
				return commandError("load formula", ff.resource(args), err)
			}

			if err := renderMarkdown(cmd.OutOrStdout(), formulaMarkdown(f)); err != nil {
				return commandError("render formula", string(f.Name), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ff.file, "file", "f", "", "load the formula from a .cue, .toml or .hcl file")
	return cmd
}

// formulaMarkdown describes f as a markdown document.
func formulaMarkdown(f *formula.Formula) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", f.Name, f.Version)
	if f.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Description)
	}
	if f.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: <%s>\n\n", f.Homepage)
	}

	if len(f.Options) > 0 {
		b.WriteString("## Options\n\n| option | default | description |\n|---|---|---|\n")
		for _, o := range f.Options {
			fmt.Fprintf(&b, "| `%s` | %t | %s |\n", o.Name, o.Default, o.Description)
		}
		b.WriteString("\n")
	}

	if len(f.Dependencies) > 0 {
		b.WriteString("## Dependencies\n\n")
		for _, d := range f.Dependencies {
			fmt.Fprintf(&b, "- %s%s\n", d.Package, whenSuffix(d.When))
		}
		b.WriteString("\n")
	}

	if len(f.ChoiceGroups) > 0 {
		b.WriteString("## Providers\n\n")
		for _, g := range f.ChoiceGroups {
			kind := "required"
			if g.Optional {
				kind = "optional"
			}
			fmt.Fprintf(&b, "- **%s** (%s)\n", g.Capability, kind)
			for _, p := range g.Providers {
				var notes []string
				if p.Default {
					notes = append(notes, "default")
				}
				if !p.When.IsZero() {
					notes = append(notes, "when `"+p.When.String()+"`")
				}
				for _, pkg := range p.Packages {
					notes = append(notes, "needs "+pkg.String())
				}
				line := "  - " + p.Name
				if len(notes) > 0 {
					line += ": " + strings.Join(notes, ", ")
				}
				b.WriteString(line + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(f.Conflicts) > 0 {
		b.WriteString("## Conflicts\n\n")
		for _, c := range f.Conflicts {
			fmt.Fprintf(&b, "- %s", c.Package)
			if c.Because != "" {
				fmt.Fprintf(&b, ": %s", c.Because)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(f.Caveats) > 0 {
		b.WriteString("## Caveats\n\n")
		for _, c := range f.Caveats {
			if !c.When.IsZero() {
				fmt.Fprintf(&b, "When `%s`:\n\n", c.When)
			}
			fmt.Fprintf(&b, "%s\n\n", c.Text)
		}
	}
	return b.String()
}

func whenSuffix(p formula.Predicate) string {
	if p.IsZero() {
		return ""
	}
	return " (when `" + p.String() + "`)"
}
