// SPDX-License-Identifier: MPL-2.0

package formula

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/pkg/cueutil"
)

// ErrUnsupportedFormat is returned for formula files whose extension is not
// .cue, .toml or .hcl.
var ErrUnsupportedFormat = errors.New("unsupported formula format")

//go:embed formula_schema.cue
var formulaSchema []byte

// Format is a formula file encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatOf returns the encoding implied by the file extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return FormatCUE, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s (want .cue, .toml or .hcl)", ErrUnsupportedFormat, filename)
	}
}

// Parse decodes and validates a formula. The encoding is chosen from the
// file extension of filename.
func Parse(data []byte, filename string) (*Formula, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}

	var f *Formula
	switch format {
	case FormatCUE:
		f, err = parseCUE(data, filename)
	case FormatTOML:
		f, err = parseTOML(data, filename)
	case FormatHCL:
		f, err = parseHCL(data, filename)
	}
	if err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return f, nil
}

// ParseFile reads path from fsys and parses it.
func ParseFile(fsys afero.Fs, path string) (*Formula, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula %s: %w", path, err)
	}
	return Parse(data, path)
}

func parseCUE(data []byte, filename string) (*Formula, error) {
	result, err := cueutil.ParseAndDecode[Formula](formulaSchema, data, "#Formula", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}
