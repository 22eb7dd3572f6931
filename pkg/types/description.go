// SPDX-License-Identifier: MPL-2.0

// Package types defines value types shared by the rigfile loader, the task
// model and the CLI. It is a leaf dependency and imports only the standard
// library.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is a human-readable task description. The zero value
	// ("") means no description was supplied. Non-zero values must not be
	// whitespace-only.
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText value is
	// non-empty but whitespace-only.
	InvalidDescriptionTextError struct {
		Value DescriptionText
	}
)

// String returns the string representation of the DescriptionText.
func (d DescriptionText) String() string { return string(d) }

// IsEmpty reports whether no description was supplied.
func (d DescriptionText) IsEmpty() bool { return d == "" }

// Validate returns an error when the description is whitespace-only.
func (d DescriptionText) Validate() error {
	if d != "" && strings.TrimSpace(string(d)) == "" {
		return &InvalidDescriptionTextError{Value: d}
	}
	return nil
}

// FirstLine returns the first line of the description, trimmed. Listings
// show only this part.
func (d DescriptionText) FirstLine() string {
	line, _, _ := strings.Cut(string(d), "\n")
	return strings.TrimSpace(line)
}

// Error implements the error interface for InvalidDescriptionTextError.
func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description text: non-empty value must not be whitespace-only (got %q)", e.Value)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is() compatibility.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }
