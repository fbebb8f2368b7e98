// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gammamatrix/homebrew-apache/internal/config"
)

// newConfigCommand creates the `keg config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage keg configuration",
		Long: `Manage keg configuration.

Configuration is stored in $XDG_CONFIG_HOME/keg/config.cue
(~/.config/keg/config.cue on Linux, ~/Library/Application Support/keg/config.cue
on macOS). Every key can be overridden with a KEG_ environment variable,
for example KEG_PREFIX or KEG_UI_VERBOSE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config(cmd.Context())
			if err != nil {
				return commandError("load configuration", app.configPath, err)
			}
			showConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig(app.configPath)
			if err != nil {
				return commandError("create configuration", path, err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.configPath
			if path == "" {
				path = config.DefaultPath("")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", config.ConfigDir())
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the resolved configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config(cmd.Context())
			if err != nil {
				return commandError("load configuration", app.configPath, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	sdk := cfg.SDKPath
	if sdk == "" {
		sdk = "/"
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("prefix"), valueStyle.Render(cfg.Prefix))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("cellar"), valueStyle.Render(cfg.Cellar))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("sdk_path"), valueStyle.Render(sdk))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("state_dir"), valueStyle.Render(cfg.StateDir))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("formula_paths"))
	if len(cfg.FormulaPaths) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, p := range cfg.FormulaPaths {
		fmt.Fprintf(w, "  - %s\n", valueStyle.Render(p))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color: %s\n", valueStyle.Render(string(cfg.UI.Color)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
}
