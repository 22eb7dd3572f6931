// SPDX-License-Identifier: MPL-2.0

// Package issue carries user-facing error context.
//
// ActionableError adds an operation, a resource and remediation hints to an
// error. The catalog in this package holds longer Markdown guidance per
// failure class, rendered through glamour when the CLI runs verbosely.
package issue
