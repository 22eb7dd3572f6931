// SPDX-License-Identifier: MPL-2.0

// Package engine resolves invocation targets into a dependency-respecting
// sequence of distinct tasks and drives their execution.
//
// Resolution is a depth-first, pre-order walk over each target's
// prerequisites, left to right. A task already placed in the sequence is not
// placed again, so every task runs at most once per Invoke. Unknown names and
// cycles are reported before any action runs. Execution is sequential and
// stops at the first failing action.
package engine
