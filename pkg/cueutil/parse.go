// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema is a compiled schema definition that documents are decoded against.
// A Schema is not safe for concurrent use.
type Schema struct {
	ctx  *cue.Context
	def  cue.Value
	name string
}

// CompileSchema compiles src and selects the definition at path, such as
// "#Rigfile".
func CompileSchema(src []byte, path string) (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath(path))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema definition %s: %w", path, err)
	}
	return &Schema{ctx: ctx, def: def, name: path}, nil
}

// Decode validates data against the schema and decodes it into out, which
// must be a non-nil pointer. The unified value is returned for callers that
// need fields the Go type does not carry.
func (s *Schema) Decode(data []byte, out any, opts ...Option) (cue.Value, error) {
	o := newDecodeOptions(opts)

	if int64(len(data)) > o.maxFileSize {
		return cue.Value{}, fmt.Errorf("%s: %d bytes exceeds the %d byte limit", o.filename, len(data), o.maxFileSize)
	}

	doc := s.ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := doc.Err(); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}

	unified := s.def.Unify(doc)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}
	if err := unified.Decode(out); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}
	return unified, nil
}

// ParseAndDecode compiles schema, then decodes data against the definition
// at path into a new T.
func ParseAndDecode[T any](schema, data []byte, path string, opts ...Option) (*T, error) {
	s, err := CompileSchema(schema, path)
	if err != nil {
		return nil, err
	}
	var out T
	if _, err := s.Decode(data, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}
