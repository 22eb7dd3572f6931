// SPDX-License-Identifier: MPL-2.0

// Package runner executes the actions of a single task in declaration order.
//
// Command actions spawn a host process and block until it exits; effect
// actions run in-process. The first failing action stops the task and is
// reported as an *ActionFailure carrying the task name and exit code.
package runner
