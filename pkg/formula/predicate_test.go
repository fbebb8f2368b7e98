// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"errors"
	"testing"

	"github.com/gammamatrix/homebrew-apache/pkg/options"
)

func selected(t *testing.T, on ...string) options.Selected {
	t.Helper()
	r, err := options.NewRegistry(
		options.Spec{Name: "brewed-apr"},
		options.Spec{Name: "ldap"},
		options.Spec{Name: "pcre"},
	)
	if err != nil {
		t.Fatal(err)
	}
	overrides := make(map[string]bool)
	for _, name := range on {
		overrides[name] = true
	}
	sel, err := r.Resolve(overrides)
	if err != nil {
		t.Fatal(err)
	}
	return sel
}

func TestPredicate_Holds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pred Predicate
		on   []string
		want bool
	}{
		{"", nil, true},
		{"ldap", nil, false},
		{"ldap", []string{"ldap"}, true},
		{"!brewed-apr", nil, true},
		{"!brewed-apr", []string{"brewed-apr"}, false},
		{"ldap && !pcre", []string{"ldap"}, true},
		{"ldap && !pcre", []string{"ldap", "pcre"}, false},
		{" ldap&&pcre ", []string{"ldap", "pcre"}, true},
		{"ldap &&", []string{"ldap"}, false},
	}

	for _, tt := range tests {
		if got := tt.pred.Holds(selected(t, tt.on...)); got != tt.want {
			t.Errorf("Predicate(%q).Holds(%v) = %v, want %v", tt.pred, tt.on, got, tt.want)
		}
	}
}

func TestPredicate_Validate(t *testing.T) {
	t.Parallel()

	declared := func(name string) bool { return name == "ldap" || name == "pcre" }
	tests := []struct {
		pred    Predicate
		wantErr bool
	}{
		{"", false},
		{"ldap", false},
		{"!ldap && pcre", false},
		{"ipv6", true},
		{"ldap || pcre", true},
		{"!!ldap", true},
		{"&&", true},
	}

	for _, tt := range tests {
		err := tt.pred.Validate(declared)
		if (err != nil) != tt.wantErr {
			t.Errorf("Predicate(%q).Validate() error = %v, wantErr %v", tt.pred, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidPredicate) {
			t.Errorf("Predicate(%q).Validate() error should wrap ErrInvalidPredicate", tt.pred)
		}
	}
}

func TestVersionConstraint_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint VersionConstraint
		version    string
		want       bool
	}{
		{"", "anything", true},
		{"2.4.10", "2.4.10", true},
		{"=2.4", "2.4.0", true},
		{">=2.4", "2.4.10", true},
		{">=2.4", "2.2.27", false},
		{"<2.4", "2.2.27", true},
		{"<=2.2.27", "2.2.27", true},
		{">2.2.27", "2.2.27", false},
		{"^2.2.0", "2.4.10", true},
		{"^2.2.0", "3.0.0", false},
		{"^0.2.0", "0.2.9", true},
		{"^0.2.0", "0.3.0", false},
		{"~2.2.0", "2.2.27", true},
		{"~2.2.0", "2.4.0", false},
		{">=1.0", "1.0.1h", false},
		{"v1.5.0", "1.5.0", true},
	}

	for _, tt := range tests {
		got, err := tt.constraint.Matches(tt.version)
		if err != nil {
			t.Errorf("%q.Matches(%q) error = %v", tt.constraint, tt.version, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.constraint, tt.version, got, tt.want)
		}
	}

	if _, err := VersionConstraint("latest").Matches("1.0.0"); !errors.Is(err, ErrInvalidConstraint) {
		t.Errorf("Matches() with bad constraint error = %v, want ErrInvalidConstraint", err)
	}
}
