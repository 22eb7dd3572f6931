// SPDX-License-Identifier: MPL-2.0

package rigfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riglabs/rig/pkg/cueutil"
)

// ErrNotFound is returned by Find when no rigfile exists in the directory or
// any of its parents.
var ErrNotFound = errors.New("no " + DefaultFileName + " found")

//go:embed rigfile_schema.cue
var schemaSource []byte

// Parse reads and validates the rigfile at path.
func Parse(path string) (*Rigfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rigfile: %w", err)
	}
	return ParseBytes(data, path)
}

// ParseBytes validates data as a rigfile. path is used for messages and is
// recorded in FilePath.
func ParseBytes(data []byte, path string) (*Rigfile, error) {
	rf, err := cueutil.ParseAndDecode[Rigfile](schemaSource, data, "#Rigfile", cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	rf.FilePath = path
	if errs := rf.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return rf, nil
}

// Find looks for DefaultFileName in dir and then in each parent directory,
// returning the absolute path of the first match.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, DefaultFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, dir)
		}
		abs = parent
	}
}
