// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gammamatrix/homebrew-apache/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, DefaultPrefix)
	}
	if cfg.Cellar != "/usr/local/Cellar" {
		t.Errorf("Cellar = %q, want /usr/local/Cellar", cfg.Cellar)
	}
	if filepath.Base(cfg.StateDir) != AppName {
		t.Errorf("StateDir = %q, want a %s directory", cfg.StateDir, AppName)
	}
	if cfg.UI.Color != ColorAuto || cfg.UI.Verbose {
		t.Errorf("UI = %+v, want auto colors and quiet", cfg.UI)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty without a config file", cfg.Source)
	}
	if cfg.ReceiptPath() != filepath.Join(cfg.StateDir, "receipts.db") {
		t.Errorf("ReceiptPath() = %q", cfg.ReceiptPath())
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
prefix: "/opt/homebrew"
sdk_path: "/Library/Developer/CommandLineTools/SDKs/MacOSX.sdk"
formula_paths: ["/etc/keg/formulas"]
ui: verbose: true
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.Prefix != "/opt/homebrew" || cfg.Cellar != "/opt/homebrew/Cellar" {
		t.Errorf("Prefix, Cellar = %q, %q", cfg.Prefix, cfg.Cellar)
	}
	if !strings.HasSuffix(cfg.SDKPath, "MacOSX.sdk") {
		t.Errorf("SDKPath = %q", cfg.SDKPath)
	}
	if !slices.Equal(cfg.FormulaPaths, []string{"/etc/keg/formulas"}) {
		t.Errorf("FormulaPaths = %v", cfg.FormulaPaths)
	}
	if !cfg.UI.Verbose || cfg.UI.Color != ColorAuto {
		t.Errorf("UI = %+v, want verbose with default color", cfg.UI)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `prefixx: "/usr/local"`},
		{"relative prefix", `prefix: "usr/local"`},
		{"bad color", `ui: color: "sometimes"`},
		{"syntax error", `prefix: `},
		{"wrong type", `ui: verbose: "yes"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error = %T, want *issue.ActionableError", err)
			}
			if ae.Resource != path {
				t.Errorf("Resource = %q, want %q", ae.Resource, path)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if !ae.HasSuggestions() {
		t.Error("missing config error should carry suggestions")
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `prefix: "/opt/homebrew"`)
	t.Setenv("KEG_PREFIX", "/home/linuxbrew/.linuxbrew")
	t.Setenv("KEG_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prefix != "/home/linuxbrew/.linuxbrew" {
		t.Errorf("Prefix = %q, want env override", cfg.Prefix)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want env override")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")

	got, created, err := CreateDefaultConfig(path)
	if err != nil || !created || got != path {
		t.Fatalf("CreateDefaultConfig() = %q, %v, %v; want %q, true, nil", got, created, err, path)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Prefix != DefaultPrefix || cfg.UI.Color != ColorAuto {
		t.Errorf("generated config = %+v", cfg)
	}

	if err := os.WriteFile(path, []byte(`prefix: "/opt/x"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, created, err := CreateDefaultConfig(path); err != nil || created {
		t.Errorf("CreateDefaultConfig() over existing file = %v, %v; want false, nil", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `prefix: "/opt/x"` {
		t.Error("existing config was overwritten")
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Prefix:       "/opt/homebrew",
		Cellar:       "/Volumes/fast/Cellar",
		SDKPath:      "/sdk",
		StateDir:     "/var/lib/keg",
		FormulaPaths: []string{"/a", "/b"},
		UI:           UIConfig{Verbose: true, Color: ColorNever},
	}
	path := writeConfig(t, t.TempDir(), GenerateCUE(cfg))

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got.Source = ""
	if got.Prefix != cfg.Prefix || got.Cellar != cfg.Cellar || got.SDKPath != cfg.SDKPath ||
		got.StateDir != cfg.StateDir || !slices.Equal(got.FormulaPaths, cfg.FormulaPaths) || got.UI != cfg.UI {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestColorMode_IsValid(t *testing.T) {
	t.Parallel()

	for _, m := range []ColorMode{ColorAuto, ColorAlways, ColorNever} {
		if ok, errs := m.IsValid(); !ok {
			t.Errorf("%q.IsValid() = false, %v", m, errs)
		}
	}
	ok, errs := ColorMode("rainbow").IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidColorMode) {
		t.Errorf("rainbow.IsValid() = %v, %v", ok, errs)
	}
}

func TestConfigDirOverride(t *testing.T) {
	SetConfigDirOverride("/tmp/keg-test")
	t.Cleanup(Reset)

	if got := DefaultPath(""); got != "/tmp/keg-test/config.cue" {
		t.Errorf("DefaultPath() = %q", got)
	}
}
