// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"

	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/types"
)

// ErrActionFailed is the sentinel wrapped by every ActionFailure.
var ErrActionFailed = errors.New("action failed")

// ActionFailure reports the first failing action of a task.
type ActionFailure struct {
	// Task is the qualified name of the failing task.
	Task task.QualifiedName
	// Index is the zero-based position of the failing action in the task.
	Index int
	// Action is the display form of the failing action.
	Action string
	// ExitCode is the command's exit status, or ExitFailure for effects
	// that carry no code of their own.
	ExitCode types.ExitCode
	// Err is the underlying error. It is nil when a command simply exited
	// non-zero.
	Err error
}

// Error implements the error interface.
func (f *ActionFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("task %q: action %d (%s) failed: %v", f.Task, f.Index+1, f.Action, f.Err)
	}
	return fmt.Sprintf("task %q: action %d (%s) exited with code %d", f.Task, f.Index+1, f.Action, f.ExitCode)
}

// Unwrap exposes both ErrActionFailed and the underlying error.
func (f *ActionFailure) Unwrap() []error {
	if f.Err == nil {
		return []error{ErrActionFailed}
	}
	return []error{ErrActionFailed, f.Err}
}
