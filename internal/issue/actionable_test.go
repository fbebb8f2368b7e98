// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load formula"},
			expected: "failed to load formula",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load formula", Resource: "httpd22"},
			expected: "failed to load formula: httpd22",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "run configure",
				Resource:  "/tmp/httpd-2.2.27",
				Cause:     errors.New("exit status 1"),
			},
			expected: "failed to run configure: /tmp/httpd-2.2.27: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()
	cause := errors.New("specific error")
	wrapped := WrapWithContext(cause, "plan build", "httpd22")

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if WrapWithContext(nil, "plan build", "httpd22") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("resolve dependencies").
		WithResource("httpd22").
		WithSuggestion("Drop --with bundled-apr").
		WithSuggestions("Run 'keg plan httpd22'").
		Wrap(&ActionableError{Operation: "select provider", Cause: errors.New("two providers")}).
		Build()

	short := err.Format(false)
	for _, want := range []string{"failed to resolve dependencies: httpd22", "• Drop --with bundled-apr", "• Run 'keg plan httpd22'"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q\ngot:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain\ngot:\n%s", short)
	}

	long := err.Format(true)
	for _, want := range []string{"Error chain:", "1. failed to select provider: two providers", "2. two providers"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q\ngot:\n%s", want, long)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return a nil error")
	}

	ae := NewErrorContext().WithOperation("write layout").Build()
	if ae == nil || ae.HasSuggestions() {
		t.Fatalf("Build() = %+v, want operation and no suggestions", ae)
	}
}
