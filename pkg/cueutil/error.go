// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalidDocument is the sentinel wrapped by Error.
var ErrInvalidDocument = errors.New("invalid document")

type (
	// Issue is one problem found in a document.
	Issue struct {
		// Path is the field path in bracket notation, e.g. "tasks[2].actions[0]".
		// It is empty for syntax errors.
		Path string
		// Line and Column locate the issue; both are zero when unknown.
		Line    int
		Column  int
		Message string
	}

	// Error reports every issue found while decoding one document.
	Error struct {
		File   string
		Issues []Issue
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		if e.Issues[0].Line > 0 {
			return e.File + ":" + e.Issues[0].String()
		}
		return e.File + ": " + e.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems:", e.File, len(e.Issues))
	for _, is := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(is.String())
	}
	return b.String()
}

// Unwrap returns ErrInvalidDocument for errors.Is() compatibility.
func (e *Error) Unwrap() error { return ErrInvalidDocument }

// String renders the issue as "line:col: path: message", omitting the parts
// that are unknown.
func (is Issue) String() string {
	var parts []string
	if is.Line > 0 {
		parts = append(parts, strconv.Itoa(is.Line)+":"+strconv.Itoa(is.Column))
	}
	if is.Path != "" {
		parts = append(parts, is.Path)
	}
	if len(parts) == 0 {
		return is.Message
	}
	return strings.Join(parts, ": ") + ": " + is.Message
}

// FormatError converts a CUE error into an *Error. Errors that carry no CUE
// detail are wrapped with the file name instead.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	out := &Error{File: file}
	for _, ce := range list {
		format, args := ce.Msg()
		is := Issue{
			Path:    formatPath(ce.Path()),
			Message: fmt.Sprintf(format, args...),
		}
		if pos := ce.Position(); pos.IsValid() {
			is.Line, is.Column = pos.Line(), pos.Column()
		}
		out.Issues = append(out.Issues, is)
	}
	return out
}

// formatPath renders ["tasks", "0", "name"] as "tasks[0].name".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if _, err := strconv.Atoi(part); err == nil && i > 0 {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
