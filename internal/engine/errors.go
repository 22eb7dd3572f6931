// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riglabs/rig/internal/runner"
	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/types"
)

var (
	// ErrTaskNotFound is the sentinel wrapped by TaskNotFoundError.
	ErrTaskNotFound = errors.New("task not found")
	// ErrCyclicDependency is the sentinel wrapped by CycleError.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrRegistryOpen is returned by New when the registry is still in its
	// registration phase.
	ErrRegistryOpen = errors.New("task registry has not been frozen")
)

type (
	// TaskNotFoundError reports a target or prerequisite name that does not
	// resolve to a registered task.
	TaskNotFoundError struct {
		// Name is the reference as written.
		Name string
		// RequiredBy is the task that listed Name as a prerequisite; it is
		// empty when Name was a target.
		RequiredBy task.QualifiedName
	}

	// CycleError reports a prerequisite chain that revisits a task already on
	// the current resolution (or execution) path. Cycle starts and ends with
	// the revisited task.
	CycleError struct {
		Cycle []task.QualifiedName
	}
)

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("task %q not found", e.Name)
	}
	return fmt.Sprintf("task %q not found (prerequisite of %q)", e.Name, e.RequiredBy)
}

// Unwrap returns ErrTaskNotFound for errors.Is() compatibility.
func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// Error implements the error interface.
func (e *CycleError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		names[i] = string(n)
	}
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(names, " -> "))
}

// Unwrap returns ErrCyclicDependency for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// IsResolutionError reports whether err is a TaskNotFoundError or a
// CycleError.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrCyclicDependency)
}

// ExitCodeFor maps the result of Invoke or Execute onto a process exit code.
// An action failure propagates the failing action's code, even when a
// forwarded task failed to resolve, because actions had already run.
// Resolution errors raised before any action map to ExitResolution and
// interrupted runs to ExitInterrupted.
func ExitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var af *runner.ActionFailure
	if errors.As(err, &af) {
		return af.ExitCode.Clamp()
	}
	if IsResolutionError(err) {
		return types.ExitResolution
	}
	if errors.Is(err, context.Canceled) {
		return types.ExitInterrupted
	}
	return types.ExitFailure
}
