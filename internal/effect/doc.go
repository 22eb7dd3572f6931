// SPDX-License-Identifier: MPL-2.0

// Package effect provides the built-in in-process actions a rigfile can use:
// file operations backed by the u-root core utilities, echo, the embedded
// virtual shell and forwarding to other tasks.
//
// Every constructor returns a task.Action of kind ActionEffect whose summary
// is suitable for dry-run output.
package effect
