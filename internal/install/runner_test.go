// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunner_Run(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	tests := []struct {
		name       string
		argv       []string
		wantCode   types.ExitCode
		wantSignal syscall.Signal
		wantErr    bool
	}{
		{"success", []string{"sh", "-c", "exit 0"}, types.ExitSuccess, 0, false},
		{"exit status", []string{"sh", "-c", "exit 3"}, 3, 0, false},
		{"killed", []string{"sh", "-c", "kill -9 $$"}, 137, syscall.SIGKILL, true},
		{"terminated", []string{"sh", "-c", "kill -15 $$"}, 143, syscall.SIGTERM, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &ExecRunner{}
			code, err := r.Run(context.Background(), t.TempDir(), tt.argv)
			if code != tt.wantCode {
				t.Errorf("Run() code = %s, want %s", code, tt.wantCode)
			}
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Run() error = %v", err)
				}
				return
			}
			var term *TerminatedError
			if !errors.As(err, &term) {
				t.Fatalf("Run() error = %v, want *TerminatedError", err)
			}
			if term.Signal != tt.wantSignal || term.Cause != nil {
				t.Errorf("TerminatedError = %+v, want signal %d and no cause", term, tt.wantSignal)
			}
			if !errors.Is(err, ErrTerminated) {
				t.Error("error should wrap ErrTerminated")
			}
		})
	}
}

func TestExecRunner_RunCommandNotFound(t *testing.T) {
	t.Parallel()

	code, err := (&ExecRunner{}).Run(context.Background(), t.TempDir(), []string{"keg-no-such-command"})
	if code != types.ExitFailure {
		t.Errorf("Run() code = %s, want %s", code, types.ExitFailure)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("Run() error = %v, want exec.ErrNotFound", err)
	}
	if errors.Is(err, ErrTerminated) {
		t.Error("a command that never started must not report termination")
	}
}

// cancelOnWrite cancels its context on the first write.
type cancelOnWrite struct{ cancel context.CancelFunc }

func (w cancelOnWrite) Write(p []byte) (int, error) {
	w.cancel()
	return len(p), nil
}

func TestExecRunner_RunContextCancelled(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &ExecRunner{Stdout: cancelOnWrite{cancel: cancel}}
	code, err := r.Run(ctx, t.TempDir(), []string{"sh", "-c", "echo started; exec sleep 30"})

	var term *TerminatedError
	if !errors.As(err, &term) {
		t.Fatalf("Run() error = %v, want *TerminatedError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled in the chain", err)
	}
	if term.Signal != syscall.SIGKILL || code != 137 {
		t.Errorf("Run() = (%s, signal %d), want (137, %d)", code, term.Signal, syscall.SIGKILL)
	}
}

func TestExecute_TerminatedStep(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	p := &Plan{
		SourceDir:  dir,
		LayoutFile: "<Layout Homebrew>\n    prefix: /k\n</Layout>\n",
		Commands:   Commands{Configure: "sh -c 'kill -9 $$'", Build: "true", Install: "true"},
	}
	_, err := NewExecutor(afero.NewOsFs(), &ExecRunner{}).Execute(context.Background(), p)

	var stepErr *ExternalStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Execute() error = %v, want *ExternalStepError", err)
	}
	if stepErr.Step != StepConfigure || stepErr.ExitCode != 137 {
		t.Errorf("ExternalStepError = {%s %s}, want {%s 137}", stepErr.Step, stepErr.ExitCode, StepConfigure)
	}
	msg := err.Error()
	if !strings.Contains(msg, "configure step was terminated by signal 9") || strings.Contains(msg, "failed to start") {
		t.Errorf("Execute() error = %q, want a termination message", msg)
	}
}
