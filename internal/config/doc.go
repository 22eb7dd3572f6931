// SPDX-License-Identifier: MPL-2.0

// Package config loads rig's user configuration.
//
// Values come, in increasing precedence, from built-in defaults, a CUE config
// file validated against an embedded schema and RIG_* environment variables.
// The file is either given explicitly or looked up as config.cue in the
// platform config directory (XDG_CONFIG_HOME/rig on Linux, Application
// Support/rig on macOS, %APPDATA%\rig on Windows).
package config
