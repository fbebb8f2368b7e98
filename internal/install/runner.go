// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

type (
	// Runner runs one external command in dir and reports its exit status.
	// A *TerminatedError means the command started but was stopped by a
	// signal; any other non-nil error means it could not be run at all.
	Runner interface {
		Run(ctx context.Context, dir string, argv []string) (types.ExitCode, error)
	}

	// waitStatus is implemented by the syscall.WaitStatus of POSIX and
	// Windows process states.
	waitStatus interface {
		Signaled() bool
		Signal() syscall.Signal
	}

	// ExecRunner runs commands as child processes.
	ExecRunner struct {
		Stdout io.Writer
		Stderr io.Writer
		// Env is appended to the inherited environment.
		Env []string
	}
)

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) (types.ExitCode, error) {
	if len(argv) == 0 {
		return types.ExitFailure, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return types.ExitFailure, fmt.Errorf("run %s: %w", argv[0], err)
		}
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() == nil {
			return code, nil
		}
		return terminated(ctx, exitErr)
	}
	return types.ExitSuccess, nil
}

// terminated reports a process that did not exit on its own. Signal kills
// map to 128+signal, the status a POSIX shell reports.
func terminated(ctx context.Context, exitErr *exec.ExitError) (types.ExitCode, error) {
	term := &TerminatedError{Cause: ctx.Err()}
	code := types.ExitFailure
	if ws, ok := exitErr.Sys().(waitStatus); ok && ws.Signaled() {
		term.Signal = ws.Signal()
		if c := types.ExitCode(128 + int(term.Signal)); c.Validate() == nil {
			code = c
		}
	}
	return code, term
}
