// SPDX-License-Identifier: MPL-2.0

// Package cellar reads the installed-package state under a Homebrew-style
// prefix: the versioned kegs in the Cellar and the stable opt links.
package cellar

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/pkg/resolve"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

type (
	// Cellar is a view of one prefix. It implements resolve.Universe and
	// plan.Locator.
	Cellar struct {
		fs     afero.Fs
		prefix string
		cellar string
		sdk    string
	}

	// Option configures a Cellar.
	Option func(*Cellar)
)

// WithCellar overrides the Cellar directory (default <prefix>/Cellar).
func WithCellar(dir string) Option {
	return func(c *Cellar) {
		if dir != "" {
			c.cellar = dir
		}
	}
}

// WithSDK sets the SDK root used for ${sdk}.
func WithSDK(path string) Option {
	return func(c *Cellar) { c.sdk = path }
}

// New returns a Cellar for prefix on fsys.
func New(fsys afero.Fs, prefix string, opts ...Option) *Cellar {
	c := &Cellar{
		fs:     fsys,
		prefix: filepath.Clean(prefix),
		cellar: filepath.Join(prefix, "Cellar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keg returns the versioned install prefix of name.
func (c *Cellar) Keg(name types.PackageName, version string) string {
	return filepath.Join(c.cellar, string(name), version)
}

// Opt returns the stable opt path of name, whether or not it exists.
func (c *Cellar) Opt(name types.PackageName) string {
	return filepath.Join(c.prefix, "opt", string(name))
}

// HasKeg reports whether the keg directory of name at version exists.
func (c *Cellar) HasKeg(name types.PackageName, version string) bool {
	ok, err := afero.DirExists(c.fs, c.Keg(name, version))
	return err == nil && ok
}

// Lookup implements resolve.Universe. A package is installed when its
// Cellar directory holds at least one version directory.
func (c *Cellar) Lookup(name types.PackageName) (resolve.Installed, bool) {
	versions, err := c.versions(name)
	if err != nil || len(versions) == 0 {
		return resolve.Installed{}, false
	}
	return resolve.Installed{Name: name, Versions: versions}, true
}

// OptPrefix implements plan.Locator.
func (c *Cellar) OptPrefix(name types.PackageName) (string, bool) {
	opt := c.Opt(name)
	if _, err := c.fs.Stat(opt); err != nil {
		return "", false
	}
	return opt, true
}

// SDKPath implements plan.Locator.
func (c *Cellar) SDKPath() string { return c.sdk }

// Installed lists every package in the Cellar, sorted by name.
func (c *Cellar) Installed() ([]resolve.Installed, error) {
	entries, err := afero.ReadDir(c.fs, c.cellar)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cellar %s: %w", c.cellar, err)
	}

	var out []resolve.Installed
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := types.PackageName(e.Name())
		if ok, _ := name.IsValid(); !ok {
			slog.Debug("skipping cellar entry", "name", e.Name())
			continue
		}
		if inst, ok := c.Lookup(name); ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Bindings returns the layout bindings for installing name at version:
// keg, opt_prefix, man, etc, var and brew_prefix.
func (c *Cellar) Bindings(name types.PackageName, version string) map[string]string {
	keg := c.Keg(name, version)
	return map[string]string{
		"keg":         keg,
		"opt_prefix":  c.Opt(name),
		"man":         filepath.Join(keg, "share", "man"),
		"etc":         filepath.Join(c.prefix, "etc"),
		"var":         filepath.Join(c.prefix, "var"),
		"brew_prefix": c.prefix,
	}
}

func (c *Cellar) versions(name types.PackageName) ([]string, error) {
	entries, err := afero.ReadDir(c.fs, filepath.Join(c.cellar, string(name)))
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			versions = append(versions, e.Name())
		}
	}
	slices.Sort(versions)
	return versions, nil
}
