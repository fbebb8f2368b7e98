// SPDX-License-Identifier: MPL-2.0

// Package service renders the launchd descriptor and the post-install
// caveats of a formula from its resolved layout.
package service

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
)

const (
	plistDoctype = `DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`
	plistSuffix  = ".plist"
)

// ErrNoService is returned when a formula declares no service.
var ErrNoService = errors.New("formula declares no service")

type (
	// Descriptor is the service description handed to the supervisor.
	Descriptor struct {
		Label     string   `json:"label" yaml:"label"`
		Command   []string `json:"command" yaml:"command"`
		RunAtLoad bool     `json:"run_at_load" yaml:"run_at_load"`
		KeepAlive bool     `json:"keep_alive,omitempty" yaml:"keep_alive,omitempty"`
		// Caveats holds the caveat texts whose predicate holds.
		Caveats []string `json:"caveats,omitempty" yaml:"caveats,omitempty"`
	}
)

// Vars returns the variables visible to service commands and caveats: the
// bindings, the resolved layout roles, and name, plist_file and
// plist_path. Roles shadow bindings.
func Vars(f *formula.Formula, resolved *layout.Resolved, bindings map[string]string) layout.Vars {
	vars := layout.Vars(bindings).With(resolved.Vars())
	file := PlistFile(f.ServiceLabel())
	dir, ok := vars["prefix"]
	if !ok {
		dir = vars["keg"]
	}
	return vars.With(map[string]string{
		"name":       string(f.Name),
		"plist_file": file,
		"plist_path": path.Join(dir, file),
	})
}

// PlistFile returns the descriptor file name for label.
func PlistFile(label string) string {
	return label + plistSuffix
}

// Render builds the descriptor of f. Every command element is expanded
// against vars.
func Render(f *formula.Formula, vars layout.Lookup, sel options.Selected) (*Descriptor, error) {
	if f.Service == nil {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrNoService)
	}

	label := f.Service.Label
	if label == "" {
		label = f.ServiceLabel()
	}

	command := make([]string, len(f.Service.Command))
	for i, raw := range f.Service.Command {
		expanded, err := layout.Expand(raw, vars)
		if err != nil {
			return nil, fmt.Errorf("service command %q: %w", raw, err)
		}
		command[i] = expanded
	}

	caveats, err := Caveats(f, vars, sel)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		Label:     label,
		Command:   command,
		RunAtLoad: f.Service.RunAtLoad,
		KeepAlive: f.Service.KeepAlive,
		Caveats:   caveats,
	}, nil
}

// Caveats returns the expanded text of every caveat whose predicate holds,
// in declaration order.
func Caveats(f *formula.Formula, vars layout.Lookup, sel options.Selected) ([]string, error) {
	var out []string
	for i, c := range f.Caveats {
		if !c.When.Holds(sel) {
			continue
		}
		text, err := layout.Expand(c.Text, vars)
		if err != nil {
			return nil, fmt.Errorf("caveat %d: %w", i, err)
		}
		out = append(out, text)
	}
	return out, nil
}

// Plist renders the descriptor as a launchd property list.
func (d *Descriptor) Plist() (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(plistDoctype)

	plist := doc.CreateElement("plist")
	plist.CreateAttr("version", "1.0")
	dict := plist.CreateElement("dict")

	dict.CreateElement("key").SetText("Label")
	dict.CreateElement("string").SetText(d.Label)

	dict.CreateElement("key").SetText("ProgramArguments")
	argv := dict.CreateElement("array")
	for _, arg := range d.Command {
		argv.CreateElement("string").SetText(arg)
	}

	dict.CreateElement("key").SetText("RunAtLoad")
	dict.CreateElement(boolTag(d.RunAtLoad))

	if d.KeepAlive {
		dict.CreateElement("key").SetText("KeepAlive")
		dict.CreateElement(boolTag(true))
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("render plist: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

func boolTag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
