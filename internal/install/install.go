// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/shell"
)

// LayoutFileName is the file the configure script reads the layout from.
const LayoutFileName = "config.layout"

const (
	// StepConfigure runs the configure script with the assembled arguments.
	StepConfigure Step = "configure"
	// StepBuild compiles the source tree.
	StepBuild Step = "build"
	// StepInstall copies the build output into the keg.
	StepInstall Step = "install"
)

type (
	// Step names an external build step.
	Step string

	// Patch is an expanded in-place source edit.
	Patch struct {
		File string
		Old  string
		New  string
	}

	// Commands are the shell-word command lines of the external steps.
	Commands struct {
		Configure string
		Build     string
		Install   string
	}

	// Plan is everything the executor needs. All paths and texts are
	// already expanded.
	Plan struct {
		// SourceDir is the unpacked source tree; steps run there.
		SourceDir string
		Patches   []Patch
		// LayoutFile is written to SourceDir/config.layout.
		LayoutFile string
		Commands   Commands
		// Args are appended to the configure command line.
		Args []string
		// Dirs and Files are created after install when missing.
		Dirs  []string
		Files []string
		// SkipBuild runs only the fixups.
		SkipBuild bool
	}

	// Result reports what Execute did.
	Result struct {
		Patched    []string
		LayoutPath string
		Steps      []Step
		Created    []string
	}

	// Executor runs plans against a filesystem and a Runner.
	Executor struct {
		fs     afero.Fs
		runner Runner
	}
)

// NewExecutor returns an Executor.
func NewExecutor(fsys afero.Fs, runner Runner) *Executor {
	return &Executor{fs: fsys, runner: runner}
}

// Execute runs the plan. The first failing step aborts the run; nothing is
// rolled back.
func (e *Executor) Execute(ctx context.Context, p *Plan) (*Result, error) {
	res := &Result{}

	if !p.SkipBuild {
		for _, patch := range p.Patches {
			applied, err := e.applyPatch(p.SourceDir, patch)
			if err != nil {
				return res, err
			}
			if applied {
				res.Patched = append(res.Patched, patch.File)
			}
		}

		layoutPath, err := e.writeLayout(p.SourceDir, p.LayoutFile)
		if err != nil {
			return res, err
		}
		res.LayoutPath = layoutPath

		for _, step := range []Step{StepConfigure, StepBuild, StepInstall} {
			if err := e.runStep(ctx, p, step); err != nil {
				return res, err
			}
			res.Steps = append(res.Steps, step)
		}
	} else {
		slog.Info("identical install found, skipping build steps", "source", p.SourceDir)
	}

	dirs, err := EnsureDirs(e.fs, p.Dirs)
	res.Created = append(res.Created, dirs...)
	if err != nil {
		return res, err
	}
	files, err := EnsureFiles(e.fs, p.Files)
	res.Created = append(res.Created, files...)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (e *Executor) writeLayout(dir, content string) (path string, err error) {
	path = filepath.Join(dir, LayoutFileName)
	f, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("write layout file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close layout file: %w", cerr)
		}
	}()

	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("write layout file: %w", err)
	}
	slog.Debug("wrote layout file", "path", path)
	return path, nil
}

func (e *Executor) runStep(ctx context.Context, p *Plan, step Step) error {
	argv, err := p.Commands.argv(step)
	if err != nil {
		return &ExternalStepError{Step: step, ExitCode: 1, Err: err}
	}
	if step == StepConfigure {
		argv = append(argv, p.Args...)
	}

	slog.Info("running build step", "step", step, "argv", argv)
	code, err := e.runner.Run(ctx, p.SourceDir, argv)
	if err != nil || !code.IsSuccess() {
		return &ExternalStepError{Step: step, ExitCode: code, Err: err}
	}
	return nil
}

// argv splits the command line of step into words. Variable references
// expand from the environment.
func (c Commands) argv(step Step) ([]string, error) {
	var line string
	switch step {
	case StepConfigure:
		line = c.Configure
	case StepBuild:
		line = c.Build
	case StepInstall:
		line = c.Install
	}

	words, err := shell.Fields(line, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s command %q: %w", step, line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s command is empty", step)
	}
	return words, nil
}
