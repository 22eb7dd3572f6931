// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("file not found")
	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load rigfile"},
			want: "failed to load rigfile",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load rigfile", Resource: "./rigfile.cue"},
			want: "failed to load rigfile: ./rigfile.cue",
		},
		{
			name: "with cause",
			err:  &ActionableError{Operation: "load rigfile", Resource: "./rigfile.cue", Cause: cause},
			want: "failed to load rigfile: ./rigfile.cue: file not found",
		},
		{
			name: "cause without resource",
			err:  &ActionableError{Operation: "run task", Cause: cause},
			want: "failed to run task: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("x").Wrap(fmt.Errorf("outer: %w", sentinel)).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is() through ActionableError = false")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("no such file")
	err := &ActionableError{
		Operation:   "load rigfile",
		Resource:    "./rigfile.cue",
		Suggestions: []string{"Pass -f", "Check permissions"},
		Cause:       fmt.Errorf("open: %w", inner),
	}

	plain := err.Format(false)
	for _, want := range []string{"failed to load rigfile", "• Pass -f", "• Check permissions"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) includes the chain:\n%s", plain)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. open: no such file", "2. no such file"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation != nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil interface", err)
	}

	ae := NewErrorContext().
		WithOperation("resolve tasks").
		WithResource("deploy").
		WithSuggestion("List tasks with rig -T").
		WithSuggestion("").
		WithIssue(TaskNotFoundId).
		Build()
	if ae.Operation != "resolve tasks" || ae.Resource != "deploy" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 1 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v, want one", ae.Suggestions)
	}
	if ae.Issue() != Get(TaskNotFoundId) {
		t.Errorf("Issue() = %v", ae.Issue())
	}
	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() without id != nil")
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	built := NewErrorContext().WithOperation("load configuration").BuildError()
	ae, ok := Find(fmt.Errorf("startup: %w", built))
	if !ok || ae.Operation != "load configuration" {
		t.Errorf("Find() = %v, %v", ae, ok)
	}
	if _, ok := Find(errors.New("plain")); ok {
		t.Error("Find() on a plain error = true")
	}
}
