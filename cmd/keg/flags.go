// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gammamatrix/homebrew-apache/internal/app/pipeline"
)

var errOptionTwice = errors.New("option given to both --with and --without")

type (
	// formulaFlags are the flags shared by every command that plans a formula.
	formulaFlags struct {
		with    []string
		without []string
		file    string
	}

	// outputFormat selects how structured results are printed.
	outputFormat string
)

const (
	outputText outputFormat = "text"
	outputYAML outputFormat = "yaml"
	outputJSON outputFormat = "json"
)

func (f *formulaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.with, "with", nil, "enable a build option (repeatable)")
	cmd.Flags().StringSliceVar(&f.without, "without", nil, "disable a build option (repeatable)")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "load the formula from a .cue, .toml or .hcl file")
}

// overrides merges --with and --without into an option override map.
func (f *formulaFlags) overrides() (map[string]bool, error) {
	out := make(map[string]bool, len(f.with)+len(f.without))
	for _, name := range f.with {
		out[strings.TrimSpace(name)] = true
	}
	for _, name := range f.without {
		name = strings.TrimSpace(name)
		if on, ok := out[name]; ok && on {
			return nil, fmt.Errorf("%w: %s", errOptionTwice, name)
		}
		out[name] = false
	}
	return out, nil
}

// resource names the formula a command works on, for error messages.
func (f *formulaFlags) resource(args []string) string {
	if f.file != "" {
		return f.file
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// planFormula opens a session and derives the install plan. The returned
// error is ready for display. withStore opens the receipt database once
// the plan is known, so a rejected invocation leaves no state behind.
func (a *App) planFormula(ctx context.Context, args []string, ff *formulaFlags, withStore bool) (*session, *pipeline.Plan, error) {
	resource := ff.resource(args)

	overrides, err := ff.overrides()
	if err != nil {
		return nil, nil, commandError("parse options", resource, err)
	}

	s, err := a.open(ctx)
	if err != nil {
		return nil, nil, commandError("load configuration", a.configPath, err)
	}

	f, err := s.loadFormula(args, ff.file)
	if err != nil {
		_ = s.Close()
		return nil, nil, commandError("load formula", resource, err)
	}

	pl, err := s.pipeline.Plan(f, overrides)
	if err != nil {
		_ = s.Close()
		return nil, nil, commandError("plan", string(f.Name), err)
	}

	if withStore {
		if err := s.openStore(); err != nil {
			_ = s.Close()
			return nil, nil, commandError("open receipts", s.cfg.ReceiptPath(), err)
		}
	}
	return s, pl, nil
}

func parseOutputFormat(s string) (outputFormat, error) {
	switch outputFormat(strings.ToLower(s)) {
	case outputText, "":
		return outputText, nil
	case outputYAML, "yml":
		return outputYAML, nil
	case outputJSON:
		return outputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}
