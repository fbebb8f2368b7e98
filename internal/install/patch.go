// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// applyPatch replaces every occurrence of Old with New. A file that
// already holds New but not Old is left alone and reported as not applied.
func (e *Executor) applyPatch(dir string, p Patch) (bool, error) {
	path := filepath.Join(dir, p.File)
	info, err := e.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", p.File, err)
	}
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", p.File, err)
	}

	content := string(data)
	switch {
	case strings.Contains(content, p.Old):
		patched := strings.ReplaceAll(content, p.Old, p.New)
		if err := afero.WriteFile(e.fs, path, []byte(patched), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("patch %s: %w", p.File, err)
		}
		slog.Debug("patched source file", "file", p.File)
		return true, nil
	case p.New != "" && strings.Contains(content, p.New):
		slog.Debug("patch already applied", "file", p.File)
		return false, nil
	default:
		return false, &PatchError{File: p.File, Old: p.Old}
	}
}
