// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs work when files change.
//
// A Watcher registers every non-ignored directory below its root with
// fsnotify, filters events through doublestar patterns and coalesces bursts
// of events into a single callback once the debounce window has been quiet.
// Callbacks never overlap: changes that arrive while one is running are
// delivered in the next batch.
package watch
