// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins namespace segments and the task name in a QualifiedName.
const Separator = ":"

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid task name")

type (
	// QualifiedName is the fully namespaced identifier of a task, such as
	// "bcook:build". It is the registry key.
	QualifiedName string

	// InvalidNameError is returned when a task or namespace name is empty,
	// contains whitespace, or has an empty segment.
	InvalidNameError struct {
		Value  string
		Reason string
	}

	// Namespace is a naming scope that contributes a prefix to the names of
	// tasks declared within it. The nil *Namespace is the root scope.
	Namespace struct {
		name   string
		parent *Namespace
	}
)

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid task name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// String returns the name as a plain string.
func (n QualifiedName) String() string { return string(n) }

// Validate checks that every segment of the name is non-empty and free of
// whitespace and argument brackets.
func (n QualifiedName) Validate() error {
	if n == "" {
		return &InvalidNameError{Value: string(n), Reason: "must not be empty"}
	}
	for seg := range strings.SplitSeq(string(n), Separator) {
		if err := validateSegment(seg); err != nil {
			return &InvalidNameError{Value: string(n), Reason: err.Error()}
		}
	}
	return nil
}

// Scope returns the namespace part of the name ("" for root-level tasks).
func (n QualifiedName) Scope() QualifiedName {
	i := strings.LastIndex(string(n), Separator)
	if i < 0 {
		return ""
	}
	return n[:i]
}

// Base returns the final segment of the name.
func (n QualifiedName) Base() string {
	i := strings.LastIndex(string(n), Separator)
	return string(n[i+1:])
}

// Join appends a relative name to a scope.
func (n QualifiedName) Join(rel string) QualifiedName {
	if n == "" {
		return QualifiedName(rel)
	}
	return QualifiedName(string(n) + Separator + rel)
}

func validateSegment(seg string) error {
	switch {
	case seg == "":
		return errors.New("empty segment")
	case strings.ContainsAny(seg, " \t\r\n"):
		return errors.New("segments must not contain whitespace")
	case strings.ContainsAny(seg, "[],"):
		return errors.New("segments must not contain '[', ']' or ','")
	}
	return nil
}

// NewNamespace creates a namespace nested under parent. A nil parent means
// the namespace sits at the root.
func NewNamespace(name string, parent *Namespace) (*Namespace, error) {
	if err := QualifiedName(name).Validate(); err != nil {
		return nil, err
	}
	return &Namespace{name: name, parent: parent}, nil
}

// Child creates a namespace nested under ns. Called on a nil namespace it
// creates a root-level one.
func (ns *Namespace) Child(name string) (*Namespace, error) {
	return NewNamespace(name, ns)
}

// Name returns the namespace's own segment.
func (ns *Namespace) Name() string {
	if ns == nil {
		return ""
	}
	return ns.name
}

// Path returns the full prefix contributed by this namespace and its
// ancestors, e.g. "setup:ubuntu".
func (ns *Namespace) Path() QualifiedName {
	if ns == nil {
		return ""
	}
	return ns.parent.Path().Join(ns.name)
}

// Qualify resolves a task name declared inside ns into its registry key.
func (ns *Namespace) Qualify(name string) QualifiedName {
	return ns.Path().Join(name)
}
