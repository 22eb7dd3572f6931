// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name:  string & !=""
	count: int & >=0 | *1
	tags?: [...string]
}
`

type testDoc struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		want     testDoc
		wantPath string
		wantErr  bool
	}{
		{
			name: "defaults applied",
			data: `name: "rig"`,
			want: testDoc{Name: "rig", Count: 1},
		},
		{
			name: "all fields",
			data: `name: "rig", count: 3, tags: ["a", "b"]`,
			want: testDoc{Name: "rig", Count: 3, Tags: []string{"a", "b"}},
		},
		{
			name:     "constraint violated",
			data:     `name: "rig", count: -1`,
			wantErr:  true,
			wantPath: "count",
		},
		{
			name:     "closed definition rejects unknown field",
			data:     `name: "rig", colour: "red"`,
			wantErr:  true,
			wantPath: "colour",
		},
		{
			name:    "syntax error",
			data:    `name: "rig`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(tt.data), "#Doc", WithFilename("doc.cue"))
			if tt.wantErr {
				var cerr *Error
				if !errors.As(err, &cerr) {
					t.Fatalf("ParseAndDecode() error = %v, want *Error", err)
				}
				if cerr.File != "doc.cue" {
					t.Errorf("File = %q", cerr.File)
				}
				if tt.wantPath != "" && !strings.Contains(err.Error(), tt.wantPath) {
					t.Errorf("error %q does not mention %q", err, tt.wantPath)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() = %v", err)
			}
			if got.Name != tt.want.Name || got.Count != tt.want.Count || strings.Join(got.Tags, ",") != strings.Join(tt.want.Tags, ",") {
				t.Errorf("ParseAndDecode() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSchema_DecodeSizeLimit(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Doc")
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	var doc testDoc
	_, err = s.Decode([]byte(`name: "a very long name"`), &doc, WithMaxFileSize(8))
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Decode() = %v, want size error", err)
	}
}

func TestCompileSchema_Errors(t *testing.T) {
	t.Parallel()

	if _, err := CompileSchema([]byte("#Doc: {"), "#Doc"); err == nil {
		t.Error("CompileSchema(bad source) succeeded")
	}
	if _, err := CompileSchema([]byte(testSchema), "#Missing"); err == nil {
		t.Error("CompileSchema(missing definition) succeeded")
	}
}
