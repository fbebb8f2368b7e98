// SPDX-License-Identifier: MPL-2.0

package service

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
)

const keg = "/usr/local/Cellar/httpd22/2.2.27"

func httpd22(t *testing.T) *formula.Formula {
	t.Helper()
	f, err := formula.NewCatalog(afero.NewMemMapFs()).Load("httpd22")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return f
}

func httpdVars(t *testing.T, f *formula.Formula) layout.Vars {
	t.Helper()
	bindings := map[string]string{
		"keg":        keg,
		"opt_prefix": "/usr/local/opt/httpd22",
		"man":        keg + "/share/man",
		"etc":        "/usr/local/etc",
		"var":        "/usr/local/var",
	}
	resolved, err := layout.Render(f.Layout, bindings)
	if err != nil {
		t.Fatalf("layout.Render() error = %v", err)
	}
	return Vars(f, resolved, bindings)
}

func selection(t *testing.T, f *formula.Formula, on ...string) options.Selected {
	t.Helper()
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
	return sel
}

func TestRender_Httpd22(t *testing.T) {
	t.Parallel()

	f := httpd22(t)
	desc, err := Render(f, httpdVars(t, f).Lookup, selection(t, f))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if desc.Label != "homebrew.mxcl.httpd22" {
		t.Errorf("Label = %q, want %q", desc.Label, "homebrew.mxcl.httpd22")
	}
	wantCmd := []string{"/usr/local/opt/httpd22/bin/httpd", "-D", "FOREGROUND"}
	if !slices.Equal(desc.Command, wantCmd) {
		t.Errorf("Command = %v, want %v", desc.Command, wantCmd)
	}
	if !desc.RunAtLoad {
		t.Error("RunAtLoad = false, want true")
	}
	if len(desc.Caveats) != 0 {
		t.Errorf("Caveats = %q, want none without privileged-ports", desc.Caveats)
	}

	plist, err := desc.Plist()
	if err != nil {
		t.Fatalf("Plist() error = %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "httpd22_plist", []byte(plist))
}

func TestRender_PrivilegedPortsCaveat(t *testing.T) {
	t.Parallel()

	f := httpd22(t)
	desc, err := Render(f, httpdVars(t, f).Lookup, selection(t, f, "privileged-ports"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(desc.Caveats) != 1 {
		t.Fatalf("len(Caveats) = %d, want 1", len(desc.Caveats))
	}

	text := desc.Caveats[0]
	for _, want := range []string{
		"To load httpd22 when --with-privileged-ports is used:",
		"sudo cp -v " + keg + "/homebrew.mxcl.httpd22.plist /Library/LaunchDaemons",
		"sudo launchctl load /Library/LaunchDaemons/homebrew.mxcl.httpd22.plist",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("caveat missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "${") {
		t.Errorf("caveat still has tokens:\n%s", text)
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	f := httpd22(t)
	sel := selection(t, f)

	noService := *f
	noService.Service = nil
	if _, err := Render(&noService, httpdVars(t, f).Lookup, sel); !errors.Is(err, ErrNoService) {
		t.Errorf("Render() without service error = %v, want ErrNoService", err)
	}

	empty := layout.Vars{}
	_, err := Render(f, empty.Lookup, sel)
	var undef *layout.UndefinedReferenceError
	if !errors.As(err, &undef) || undef.Reference != "opt_prefix" {
		t.Errorf("Render() with no vars error = %v, want undefined opt_prefix", err)
	}
}

func TestPlist_CustomLabelAndKeepAlive(t *testing.T) {
	t.Parallel()

	desc := &Descriptor{
		Label:     "org.example.web",
		Command:   []string{"/opt/web/bin/web", "--listen", "a&b"},
		KeepAlive: true,
	}
	out, err := desc.Plist()
	if err != nil {
		t.Fatalf("Plist() error = %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(out); err != nil {
		t.Fatalf("plist is not well-formed XML: %v", err)
	}
	dict := doc.FindElement("/plist/dict")
	if dict == nil {
		t.Fatal("plist has no dict")
	}

	var keys []string
	for _, k := range dict.SelectElements("key") {
		keys = append(keys, k.Text())
	}
	wantKeys := []string{"Label", "ProgramArguments", "RunAtLoad", "KeepAlive"}
	if !slices.Equal(keys, wantKeys) {
		t.Errorf("keys = %v, want %v", keys, wantKeys)
	}

	var args []string
	for _, s := range dict.FindElements("array/string") {
		args = append(args, s.Text())
	}
	if !slices.Equal(args, desc.Command) {
		t.Errorf("ProgramArguments = %v, want %v", args, desc.Command)
	}
	if dict.SelectElement("false") == nil || dict.SelectElement("true") == nil {
		t.Error("RunAtLoad=false and KeepAlive=true should render <false/> and <true/>")
	}
}

func TestPlistFile(t *testing.T) {
	t.Parallel()

	if got := PlistFile("homebrew.mxcl.httpd22"); got != "homebrew.mxcl.httpd22.plist" {
		t.Errorf("PlistFile() = %q, want %q", got, "homebrew.mxcl.httpd22.plist")
	}
}
