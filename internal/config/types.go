// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

const (
	// ColorAuto colors output when stdout is a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways always colors output.
	ColorAlways ColorMode = "always"
	// ColorNever disables color.
	ColorNever ColorMode = "never"

	// DefaultPrefix is the Homebrew prefix used when none is configured.
	DefaultPrefix = "/usr/local"
)

var (
	// ErrInvalidColorMode is the sentinel error wrapped by InvalidColorModeError.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorMode selects when output is colored.
	ColorMode string

	// InvalidColorModeError is returned when a ColorMode value is not recognized.
	InvalidColorModeError struct {
		Value ColorMode
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// UIConfig holds terminal output settings.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
		// Color selects when output is colored.
		Color ColorMode `json:"color" yaml:"color" mapstructure:"color"`
	}

	// Config is the resolved keg configuration.
	Config struct {
		// Prefix is the Homebrew prefix.
		Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
		// Cellar holds the versioned kegs.
		Cellar string `json:"cellar" yaml:"cellar" mapstructure:"cellar"`
		// SDKPath is the SDK root; empty means the host root.
		SDKPath string `json:"sdk_path" yaml:"sdk_path" mapstructure:"sdk_path"`
		// StateDir holds the receipt database.
		StateDir string `json:"state_dir" yaml:"state_dir" mapstructure:"state_dir"`
		// FormulaPaths are searched before the built-in catalog.
		FormulaPaths []string `json:"formula_paths" yaml:"formula_paths" mapstructure:"formula_paths"`
		// UI holds terminal output settings.
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`
		// Source is the file the configuration was loaded from, if any.
		Source string `json:"-" yaml:"-" mapstructure:"-"`
	}
)

// Error implements the error interface.
func (e *InvalidColorModeError) Error() string {
	return fmt.Sprintf("invalid color mode %q (valid: auto, always, never)", e.Value)
}

// Unwrap returns ErrInvalidColorMode for errors.Is() compatibility.
func (e *InvalidColorModeError) Unwrap() error { return ErrInvalidColorMode }

// IsValid returns whether the ColorMode is one of the defined modes.
func (m ColorMode) IsValid() (bool, []error) {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return true, nil
	default:
		return false, []error{&InvalidColorModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid checks every path field and the color mode.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range []struct {
		field, value string
	}{
		{"prefix", c.Prefix},
		{"cellar", c.Cellar},
		{"state_dir", c.StateDir},
	} {
		if ok, perrs := types.AbsolutePath(p.value).IsValid(); !ok {
			for _, err := range perrs {
				errs = append(errs, fmt.Errorf("%s: %w", p.field, err))
			}
		}
	}
	for i, dir := range c.FormulaPaths {
		if ok, perrs := types.AbsolutePath(dir).IsValid(); !ok {
			for _, err := range perrs {
				errs = append(errs, fmt.Errorf("formula_paths[%d]: %w", i, err))
			}
		}
	}
	if ok, cerrs := c.UI.Color.IsValid(); !ok {
		errs = append(errs, cerrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// ReceiptPath returns the receipt database location.
func (c *Config) ReceiptPath() string {
	return filepath.Join(c.StateDir, "receipts.db")
}

// DefaultConfig returns the default configuration. Cellar and StateDir
// are derived when left empty.
func DefaultConfig() *Config {
	return &Config{
		Prefix:       DefaultPrefix,
		Cellar:       "",
		SDKPath:      "",
		StateDir:     "",
		FormulaPaths: []string{},
		UI: UIConfig{
			Verbose: false,
			Color:   ColorAuto,
		},
	}
}

// applyDerived fills the fields whose default depends on other fields.
func (c *Config) applyDerived() {
	if c.Cellar == "" {
		c.Cellar = filepath.Join(c.Prefix, "Cellar")
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(xdg.StateHome, AppName)
	}
	if c.FormulaPaths == nil {
		c.FormulaPaths = []string{}
	}
}
