// SPDX-License-Identifier: MPL-2.0

// Package rigfile reads rigfile.cue task declarations and registers them
// into a task.Registry.
//
// A rigfile is validated against an embedded CUE schema, then checked for
// rules the schema cannot express (exactly one kind per action, modifiers
// only on actions that support them). Load resolves includes, recovering a
// missing include at most once through its recover actions, and registers
// every task in declaration order.
package rigfile
