// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes user-authored CUE documents against an embedded
// schema definition.
//
// Decoding always follows the same steps: compile the schema once, compile
// the document, unify it with the named definition, validate and decode into
// a Go value. Validation failures are reported as *Error values listing
// every offending field with its position.
//
//	//go:embed rigfile_schema.cue
//	var schemaSource []byte
//
//	rf, err := cueutil.ParseAndDecode[Rigfile](schemaSource, data, "#Rigfile",
//	    cueutil.WithFilename(path))
package cueutil
