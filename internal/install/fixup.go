// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// EnsureDirs creates each missing directory with its parents and returns
// the ones it created.
func EnsureDirs(fsys afero.Fs, dirs []string) ([]string, error) {
	var created []string
	for _, dir := range dirs {
		exists, err := afero.DirExists(fsys, dir)
		if err != nil {
			return created, fmt.Errorf("stat %s: %w", dir, err)
		}
		if exists {
			continue
		}
		if err := fsys.MkdirAll(dir, dirPerm); err != nil {
			return created, fmt.Errorf("create directory %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

// EnsureFiles creates each missing file empty and returns the ones it
// created. Existing files are never opened for writing.
func EnsureFiles(fsys afero.Fs, files []string) ([]string, error) {
	var created []string
	for _, path := range files {
		if _, err := fsys.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return created, fmt.Errorf("stat %s: %w", path, err)
		}

		if err := fsys.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
			return created, fmt.Errorf("create directory for %s: %w", path, err)
		}
		f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return created, fmt.Errorf("create file %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return created, fmt.Errorf("close %s: %w", path, err)
		}
		created = append(created, path)
	}
	return created, nil
}
