// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

var (
	// ErrExternalStep is the sentinel error wrapped by ExternalStepError.
	ErrExternalStep = errors.New("external build step failed")
	// ErrTerminated is the sentinel error wrapped by TerminatedError.
	ErrTerminated = errors.New("process terminated")
	// ErrPatch is the sentinel error wrapped by PatchError.
	ErrPatch = errors.New("patch does not apply")
)

type (
	// ExternalStepError is returned when configure, build or install exits
	// non-zero, is terminated, or cannot be started.
	ExternalStepError struct {
		Step     Step
		ExitCode types.ExitCode
		// Err is a *TerminatedError when the step was stopped, or the
		// start error when it never ran.
		Err error
	}

	// TerminatedError is returned by a Runner when the process was stopped
	// before it could exit, by a signal or by context cancellation.
	TerminatedError struct {
		// Signal is zero when the platform does not report one.
		Signal syscall.Signal
		// Cause is the context error when the context ended the process.
		Cause error
	}

	// PatchError is returned when a patch target holds neither the original
	// nor the replacement text.
	PatchError struct {
		File string
		Old  string
	}
)

// Error implements the error interface.
func (e *ExternalStepError) Error() string {
	var term *TerminatedError
	switch {
	case errors.As(e.Err, &term):
		return fmt.Sprintf("%s step was %v", e.Step, term)
	case e.Err != nil:
		return fmt.Sprintf("%s step failed to start: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s step exited with status %s", e.Step, e.ExitCode)
}

// Unwrap returns ErrExternalStep and the start error, if any.
func (e *ExternalStepError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrExternalStep, e.Err}
	}
	return []error{ErrExternalStep}
}

// Error implements the error interface.
func (e *TerminatedError) Error() string {
	msg := "terminated"
	if e.Signal != 0 {
		msg = fmt.Sprintf("terminated by signal %d (%s)", int(e.Signal), e.Signal)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrTerminated and the context error, if any.
func (e *TerminatedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTerminated, e.Cause}
	}
	return []error{ErrTerminated}
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %s: text %q not found", e.File, e.Old)
}

// Unwrap returns ErrPatch for errors.Is() compatibility.
func (e *PatchError) Unwrap() error { return ErrPatch }
