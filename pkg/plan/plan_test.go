// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/resolve"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

type fakeLocator struct {
	prefix    string
	installed []types.PackageName
	sdk       string
}

func (l fakeLocator) OptPrefix(name types.PackageName) (string, bool) {
	if !slices.Contains(l.installed, name) {
		return "", false
	}
	return l.prefix + "/opt/" + string(name), true
}

func (l fakeLocator) SDKPath() string { return l.sdk }

var allBrewed = fakeLocator{
	prefix:    "/usr/local",
	installed: []types.PackageName{"apr", "apr-util", "openssl", "pcre", "zlib"},
}

func assembleHttpd(t *testing.T, loc Locator, on ...string) ([]BuildArg, error) {
	t.Helper()
	f, err := formula.NewCatalog(afero.NewMemMapFs()).Load("httpd22")
	if err != nil {
		t.Fatal(err)
	}
	reg, err := f.Registry()
	if err != nil {
		t.Fatal(err)
	}
	overrides := make(map[string]bool)
	for _, name := range on {
		overrides[name] = true
	}
	sel, err := reg.Resolve(overrides)
	if err != nil {
		t.Fatal(err)
	}
	res, err := resolve.Resolve(sel, f.Dependencies, f.ChoiceGroups, f.Conflicts, resolve.Set{})
	if err != nil {
		t.Fatal(err)
	}
	return Assemble(sel, res, f.StaticArgs, f.ChoiceGroups, loc)
}

func TestAssemble_PortSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		on      []string
		want    []string
		notWant []string
	}{
		{
			name:    "privileged ports",
			on:      []string{"privileged-ports"},
			want:    []string{"--with-port=80", "--with-sslport=443"},
			notWant: []string{"--with-port=8080", "--with-sslport=8443"},
		},
		{
			name:    "defaults",
			want:    []string{"--with-port=8080", "--with-sslport=8443", "--with-included-apr", "--with-ssl=/usr", "--with-z=/usr"},
			notWant: []string{"--with-port=80", "--with-apr=/usr/local/opt/apr", "--with-ldap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args, err := assembleHttpd(t, allBrewed, tt.on...)
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			got := Strings(args)
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("args missing %q: %v", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if slices.Contains(got, nw) {
					t.Errorf("args should not contain %q: %v", nw, got)
				}
			}
			for _, a := range got {
				if len(a) >= 11 && a[:11] == "--with-apr=" {
					t.Errorf("default args should not contain --with-apr=, got %q", a)
				}
			}
		})
	}
}

func TestAssemble_FullOrder(t *testing.T) {
	t.Parallel()

	args, err := assembleHttpd(t, allBrewed, "brewed-apr", "brewed-openssl", "brewed-zlib", "pcre", "ldap")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	got := Strings(args)
	wantTail := []string{
		"--with-ssl=/usr/local/opt/openssl",
		"--with-port=8080",
		"--with-sslport=8443",
		"--with-apr=/usr/local/opt/apr",
		"--with-apr-util=/usr/local/opt/apr-util",
		"--with-pcre=/usr/local/opt/pcre",
		"--with-z=/usr/local/opt/zlib",
		"--with-ldap",
		"--enable-ldap",
		"--enable-authnz-ldap",
	}
	if len(got) != 14+len(wantTail) {
		t.Fatalf("len(args) = %d, want %d: %v", len(got), 14+len(wantTail), got)
	}
	if got[0] != "--enable-layout=Homebrew" || got[13] != "--enable-rewrite" {
		t.Errorf("static args out of order: %v", got[:14])
	}
	if !slices.Equal(got[14:], wantTail) {
		t.Errorf("group args = %v, want %v", got[14:], wantTail)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	t.Parallel()

	for _, on := range [][]string{nil, {"privileged-ports"}, {"brewed-apr", "ldap", "pcre"}} {
		a, err := assembleHttpd(t, allBrewed, on...)
		if err != nil {
			t.Fatal(err)
		}
		b, err := assembleHttpd(t, allBrewed, on...)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(a, b) {
			t.Errorf("Assemble(%v) not deterministic:\n%v\n%v", on, a, b)
		}
	}
}

func TestAssemble_SDKPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sdk  string
		want string
	}{
		{"", "--with-z=/usr"},
		{"/", "--with-z=/usr"},
		{"/Applications/Xcode.app/Contents/Developer/Platforms/MacOSX.platform/Developer/SDKs/MacOSX10.9.sdk/",
			"--with-z=/Applications/Xcode.app/Contents/Developer/Platforms/MacOSX.platform/Developer/SDKs/MacOSX10.9.sdk/usr"},
	}

	for _, tt := range tests {
		args, err := assembleHttpd(t, fakeLocator{prefix: "/usr/local", sdk: tt.sdk})
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Contains(Strings(args), tt.want) {
			t.Errorf("SDK %q: args %v missing %q", tt.sdk, args, tt.want)
		}
	}
}

func TestAssemble_UnresolvedProviderPath(t *testing.T) {
	t.Parallel()

	loc := fakeLocator{prefix: "/usr/local", installed: []types.PackageName{"apr"}}
	_, err := assembleHttpd(t, loc, "brewed-apr")

	var unresolved *UnresolvedProviderPathError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Assemble() error = %v, want *UnresolvedProviderPathError", err)
	}
	if unresolved.Capability != "apr" || unresolved.Provider != "brewed" || unresolved.Package != "apr-util" {
		t.Errorf("UnresolvedProviderPathError = %+v", unresolved)
	}
}

func TestAssemble_DropsExactDuplicates(t *testing.T) {
	t.Parallel()

	reg, _ := options.NewRegistry(options.Spec{Name: "ssl"})
	sel, _ := reg.Resolve(map[string]bool{"ssl": true})
	groups := []formula.ChoiceGroup{{
		Capability: "ssl",
		Providers: []formula.Provider{
			{Name: "on", When: "ssl", Args: []string{"--enable-ssl", "--with-ssl=/usr"}},
			{Name: "off", Default: true, Args: []string{"--disable-ssl"}},
		},
	}}
	res, err := resolve.Resolve(sel, nil, groups, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	args, err := Assemble(sel, res, []string{"--enable-ssl", "--enable-dav"}, groups, allBrewed)
	if err != nil {
		t.Fatal(err)
	}
	want := []BuildArg{"--enable-ssl", "--enable-dav", "--with-ssl=/usr"}
	if !slices.Equal(args, want) {
		t.Errorf("Assemble() = %v, want %v", args, want)
	}
}

func TestAssemble_StaleResolution(t *testing.T) {
	t.Parallel()

	reg, _ := options.NewRegistry(options.Spec{Name: "ldap"})
	on, _ := reg.Resolve(map[string]bool{"ldap": true})
	off, _ := reg.Resolve(nil)
	groups := []formula.ChoiceGroup{{
		Capability: "ldap",
		Optional:   true,
		Providers:  []formula.Provider{{Name: "enabled", When: "ldap", Args: []string{"--with-ldap"}}},
	}}

	res, err := resolve.Resolve(on, nil, groups, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Assemble(off, res, nil, groups, allBrewed); !errors.Is(err, ErrStaleResolution) {
		t.Errorf("Assemble() with mismatched options error = %v, want ErrStaleResolution", err)
	}

	extra := append(groups, formula.ChoiceGroup{Capability: "zlib", Providers: []formula.Provider{{Name: "sdk", Default: true}}})
	if _, err := Assemble(on, res, nil, extra, allBrewed); !errors.Is(err, ErrStaleResolution) {
		t.Errorf("Assemble() with unknown group error = %v, want ErrStaleResolution", err)
	}
}
