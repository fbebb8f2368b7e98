// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gammamatrix/homebrew-apache/internal/app/pipeline"
)

func newInstallCommand(app *App) *cobra.Command {
	var (
		ff   formulaFlags
		opts pipeline.InstallOptions
	)

	cmd := &cobra.Command{
		Use:   "install [formula] --source DIR",
		Short: "Build a formula from an unpacked source tree and install it",
		Long: `Build a formula from an unpacked source tree and install it.

keg applies the formula's patches, writes the layout file into the source
directory, runs configure with the planned arguments, then build and
install, and finally creates the runtime directories and log files.

A receipt of every completed install is kept. When an identical install
is recorded and its keg still exists, the build steps are skipped unless
--force is given; the runtime fixups always run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, pl, err := app.planFormula(cmd.Context(), args, &ff, true)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			name := string(pl.Formula.Name)
			out, err := s.pipeline.Install(cmd.Context(), pl, opts)
			if err != nil {
				return commandError("install", name, err)
			}

			w := cmd.OutOrStdout()
			if out.Skipped {
				fmt.Fprintf(w, "%s %s %s is already installed (receipt %s); skipped the build steps\n",
					SuccessStyle.Render("✓"), name, pl.Formula.Version, VerboseStyle.Render(out.Receipt.ID.String()))
			} else {
				for _, step := range out.Result.Steps {
					fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓"), step)
				}
				fmt.Fprintf(w, "%s Installed %s %s into %s\n",
					SuccessStyle.Render("✓"), name, pl.Formula.Version, CmdStyle.Render(pl.Bindings["keg"]))
			}
			writeCreated(w, out.Result.Created)
			writeCaveats(w, pl.Caveats)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&opts.SourceDir, "source", "", "unpacked source directory (required)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "run the build steps even when an identical install is recorded")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newFixupCommand(app *App) *cobra.Command {
	var ff formulaFlags

	cmd := &cobra.Command{
		Use:   "fixup [formula]",
		Short: "Create missing runtime directories and log files",
		Long: `Create the runtime directories and log files an installed formula needs.

Existing directories and files are left untouched, so fixup can be run any
number of times.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, pl, err := app.planFormula(cmd.Context(), args, &ff, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			created, err := s.pipeline.Fixup(pl)
			if err != nil {
				return commandError("fix up", string(pl.Formula.Name), err)
			}

			w := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintf(w, "%s Nothing to do\n", SuccessStyle.Render("✓"))
				return nil
			}
			writeCreated(w, created)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func newTestCommand(app *App) *cobra.Command {
	var ff formulaFlags

	cmd := &cobra.Command{
		Use:   "test [formula]",
		Short: "Run an installed formula's smoke test",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, pl, err := app.planFormula(cmd.Context(), args, &ff, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			name := string(pl.Formula.Name)
			if err := s.pipeline.RunTest(cmd.Context(), pl); err != nil {
				return commandError("test", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s test passed\n", SuccessStyle.Render("✓"), name)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func writeCreated(w io.Writer, created []string) {
	for _, path := range created {
		fmt.Fprintf(w, "  created %s\n", CmdStyle.Render(path))
	}
}

func writeCaveats(w io.Writer, caveats []string) {
	if len(caveats) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, WarningStyle.Render("Caveats:"))
	for _, c := range caveats {
		fmt.Fprintln(w, c)
	}
}
