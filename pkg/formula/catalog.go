// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// ErrFormulaNotFound is the sentinel error wrapped by FormulaNotFoundError.
var ErrFormulaNotFound = errors.New("formula not found")

//go:embed catalog/*.cue
var builtinFormulas embed.FS

// BuiltinOrigin is the Entry.Origin of formulas compiled into keg.
const BuiltinOrigin = "builtin"

type (
	// Catalog finds formulas by name. Directories in search paths are
	// consulted in order before the built-in formulas, so a local file can
	// shadow a built-in formula of the same name.
	Catalog struct {
		fs    afero.Fs
		paths []string
	}

	// Entry is one formula known to a Catalog.
	Entry struct {
		Name   string
		Origin string
		Path   string
	}

	// FormulaNotFoundError is returned when no search path and no built-in
	// formula provides the requested name.
	FormulaNotFoundError struct {
		Name     string
		Searched []string
	}
)

// NewCatalog creates a Catalog reading search paths from fsys.
func NewCatalog(fsys afero.Fs, paths ...string) *Catalog {
	return &Catalog{fs: fsys, paths: slices.Clone(paths)}
}

// List returns every reachable formula sorted by name. Shadowed formulas
// are omitted.
func (c *Catalog) List() ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, dir := range c.paths {
		found, err := c.scanDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if !seen[e.Name] {
				seen[e.Name] = true
				entries = append(entries, e)
			}
		}
	}

	builtins, err := fs.ReadDir(builtinFormulas, "catalog")
	if err != nil {
		return nil, fmt.Errorf("internal error: reading built-in formulas: %w", err)
	}
	for _, d := range builtins {
		name := strings.TrimSuffix(d.Name(), path.Ext(d.Name()))
		if !seen[name] {
			seen[name] = true
			entries = append(entries, Entry{Name: name, Origin: BuiltinOrigin, Path: path.Join("catalog", d.Name())})
		}
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// Load finds and parses the formula called name.
func (c *Catalog) Load(name string) (*Formula, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(entries, func(e Entry) bool { return e.Name == name })
	if i < 0 {
		return nil, &FormulaNotFoundError{Name: name, Searched: c.paths}
	}
	entry := entries[i]

	var f *Formula
	if entry.Origin == BuiltinOrigin {
		f, err = parseBuiltin(entry.Path)
	} else {
		f, err = ParseFile(c.fs, entry.Path)
	}
	if err != nil {
		return nil, err
	}
	if string(f.Name) != name {
		return nil, fmt.Errorf("%s: declares formula %q, expected %q", entry.Path, f.Name, name)
	}
	return f, nil
}

func (c *Catalog) scanDir(dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read formula directory %s: %w", dir, err)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if _, err := FormatOf(info.Name()); err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:   strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())),
			Origin: dir,
			Path:   filepath.Join(dir, info.Name()),
		})
	}
	return entries, nil
}

// Error implements the error interface.
func (e *FormulaNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("formula %q not found", e.Name)
	}
	return fmt.Sprintf("formula %q not found (searched %s and the built-in catalog)", e.Name, strings.Join(e.Searched, ", "))
}

// Unwrap returns ErrFormulaNotFound for errors.Is() compatibility.
func (e *FormulaNotFoundError) Unwrap() error { return ErrFormulaNotFound }

func parseBuiltin(path string) (*Formula, error) {
	data, err := builtinFormulas.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula %s: %w", path, err)
	}
	return Parse(data, path)
}
