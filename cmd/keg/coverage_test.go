// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestBuiltinCommandTxtarCoverage verifies that every non-hidden, runnable,
// leaf command has at least one testscript (.txtar) file exercising it in
// tests/cli/testdata/.
func TestBuiltinCommandTxtarCoverage(t *testing.T) {
	t.Parallel()

	app, err := NewApp(Dependencies{})
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	commands := make(map[string]bool)
	collectLeafCommands(NewRootCommand(app), "", commands)

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file path via runtime.Caller")
	}
	// cmd/keg/coverage_test.go → cmd/keg/ → cmd/ → project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err != nil {
		t.Fatalf("project root detection failed: go.mod not found at %s", projectRoot)
	}
	testdataDir := filepath.Join(projectRoot, "tests", "cli", "testdata")

	covered := scanTxtarCoverage(t, testdataDir, commands)

	var uncovered []string
	for cmdPath := range commands {
		if !covered[cmdPath] {
			uncovered = append(uncovered, cmdPath)
		}
	}
	sort.Strings(uncovered)
	for _, cmdPath := range uncovered {
		t.Errorf("uncovered command: %q has no txtar test in %s", cmdPath, testdataDir)
	}
}

// collectLeafCommands records the path of every visible leaf command that
// has a handler. Routing nodes such as bare `keg config` are skipped.
func collectLeafCommands(cmd *cobra.Command, prefix string, commands map[string]bool) {
	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}

		childPath := child.Name()
		if prefix != "" {
			childPath = prefix + " " + child.Name()
		}

		visibleChildren := 0
		for _, grandchild := range child.Commands() {
			if !grandchild.Hidden {
				visibleChildren++
			}
		}
		if visibleChildren == 0 && (child.RunE != nil || child.Run != nil) {
			commands[childPath] = true
		}

		collectLeafCommands(child, childPath, commands)
	}
}

// scanTxtarCoverage returns the known command paths named by `exec keg`
// lines in the txtar files of testdataDir.
func scanTxtarCoverage(t *testing.T, testdataDir string, known map[string]bool) map[string]bool {
	t.Helper()
	covered := make(map[string]bool)
	execRe := regexp.MustCompile(`^!?\s*exec\s+keg\s+(.+)`)

	entries, err := os.ReadDir(testdataDir)
	if err != nil {
		t.Fatalf("failed to read testdata directory %s: %v", testdataDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txtar") {
			continue
		}
		scanTxtarFile(t, filepath.Join(testdataDir, entry.Name()), execRe, known, covered)
	}
	return covered
}

func scanTxtarFile(t *testing.T, path string, execRe *regexp.Regexp, known, covered map[string]bool) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Errorf("failed to open %s: %v", path, err)
		return
	}
	defer func() { _ = f.Close() }() // Read-only file; close error non-critical.

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := execRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		if cmdPath := matchLongestCommand(strings.Fields(m[1]), known); cmdPath != "" {
			covered[cmdPath] = true
		}
	}
	if err := scanner.Err(); err != nil {
		t.Errorf("error scanning %s: %v", path, err)
	}
}

// matchLongestCommand returns the longest known command path that prefixes
// tokens, or "" when none does.
func matchLongestCommand(tokens []string, known map[string]bool) string {
	var best string
	for i := 1; i <= len(tokens); i++ {
		candidate := strings.Join(tokens[:i], " ")
		if known[candidate] {
			best = candidate
		}
	}
	return best
}

func TestMatchLongestCommand(t *testing.T) {
	t.Parallel()

	known := map[string]bool{
		"config show": true,
		"plan":        true,
	}

	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"exact match", []string{"plan"}, "plan"},
		{"flags after command", []string{"plan", "httpd22", "--with", "ldap"}, "plan"},
		{"two tokens", []string{"config", "show"}, "config show"},
		{"routing node only", []string{"config"}, ""},
		{"no match", []string{"nonexistent"}, ""},
		{"empty tokens", []string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := matchLongestCommand(tt.tokens, known); got != tt.want {
				t.Errorf("matchLongestCommand(%v) = %q, want %q", tt.tokens, got, tt.want)
			}
		})
	}
}
