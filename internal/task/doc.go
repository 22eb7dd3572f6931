// SPDX-License-Identifier: MPL-2.0

// Package task defines the declarative task model: qualified names and
// namespaces, parameters and their binding, the tagged action variant, and the
// two-phase Registry that holds every declared task.
//
// A Registry is written during a registration phase (rigfile loading) and then
// frozen. Once frozen it is read-only and may be handed to the invocation
// engine; nothing in this package executes actions.
package task
