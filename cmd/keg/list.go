// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gammamatrix/homebrew-apache/internal/receipt"
)

func newListCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list [formula]",
		Short: "List recorded installs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return commandError("parse flags", "--output", err)
			}

			s, err := app.open(cmd.Context())
			if err != nil {
				return commandError("load configuration", app.configPath, err)
			}
			defer func() { _ = s.Close() }()
			if err := s.openStore(); err != nil {
				return commandError("open receipts", s.cfg.ReceiptPath(), err)
			}

			var name string
			if len(args) > 0 {
				name = args[0]
			}
			receipts, err := s.store.List(cmd.Context(), name)
			if err != nil {
				return commandError("list receipts", s.cfg.ReceiptPath(), err)
			}

			w := cmd.OutOrStdout()
			switch format {
			case outputJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(nonNilReceipts(receipts))
			case outputYAML:
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(nonNilReceipts(receipts)); err != nil {
					return err
				}
				return enc.Close()
			}

			if len(receipts) == 0 {
				fmt.Fprintln(w, SubtitleStyle.Render("(no installs recorded)"))
				return nil
			}
			for _, r := range receipts {
				options := "(defaults)"
				if len(r.Options) > 0 {
					options = "+" + strings.Join(r.Options, " +")
				}
				fmt.Fprintf(w, "%s %s  %s  %s  %s\n",
					CmdStyle.Render(r.Formula), r.Version,
					r.InstalledAt.Local().Format(time.DateTime),
					options,
					VerboseStyle.Render(r.ID.String()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(outputText), "output format: text, yaml or json")
	return cmd
}

func nonNilReceipts(rs []receipt.Receipt) []receipt.Receipt {
	if rs == nil {
		return []receipt.Receipt{}
	}
	return rs
}
