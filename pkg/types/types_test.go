// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestDescriptionText_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc DescriptionText
		want bool
	}{
		{"Use Homebrew's APR and APR-util", true},
		{"", true},
		{"   ", false},
		{"\n\t", false},
	}

	for _, tt := range tests {
		ok, errs := tt.desc.IsValid()
		if ok != tt.want {
			t.Errorf("DescriptionText(%q).IsValid() = %v, want %v", tt.desc, ok, tt.want)
		}
		if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidDescriptionText)) {
			t.Errorf("DescriptionText(%q).IsValid() errors = %v, want ErrInvalidDescriptionText", tt.desc, errs)
		}
	}
}

func TestAbsolutePath_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path AbsolutePath
		want bool
	}{
		{"/usr/local/Cellar/httpd22/2.2.27", true},
		{"/", true},
		{"", false},
		{"var/log", false},
		{"${prefix}/bin", false},
	}

	for _, tt := range tests {
		ok, errs := tt.path.IsValid()
		if ok != tt.want {
			t.Errorf("AbsolutePath(%q).IsValid() = %v, want %v", tt.path, ok, tt.want)
		}
		if !tt.want {
			var pathErr *InvalidAbsolutePathError
			if len(errs) == 0 || !errors.As(errs[0], &pathErr) {
				t.Errorf("AbsolutePath(%q).IsValid() errors = %v, want *InvalidAbsolutePathError", tt.path, errs)
			}
		}
	}
}

func TestAbsolutePath_Join(t *testing.T) {
	t.Parallel()

	got := AbsolutePath("/usr/local").Join("opt", "apr", "..", "apr-util")
	if got != "/usr/local/opt/apr-util" {
		t.Errorf("Join() = %q, want %q", got, "/usr/local/opt/apr-util")
	}
}

func TestPackageName_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name PackageName
		want bool
	}{
		{"httpd22", true},
		{"apr-util", true},
		{"openssl@3", true},
		{"libxml++", true},
		{"", false},
		{"Httpd", false},
		{"-apr", false},
		{"has space", false},
	}

	for _, tt := range tests {
		ok, errs := tt.name.IsValid()
		if ok != tt.want {
			t.Errorf("PackageName(%q).IsValid() = %v, want %v", tt.name, ok, tt.want)
		}
		if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidPackageName)) {
			t.Errorf("PackageName(%q).IsValid() errors = %v, want ErrInvalidPackageName", tt.name, errs)
		}
	}
}
