// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// builtinIgnores are skipped no matter what the rigfile says.
var builtinIgnores = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swx",
	"**/*~",
	"**/.DS_Store",
}

// Filter decides which paths, relative to the watch root, are of interest.
type Filter struct {
	patterns []string
	ignores  []string
}

// NewFilter validates patterns and ignore globs. An empty pattern list
// matches every path that is not ignored.
func NewFilter(patterns, ignore []string) (*Filter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: watch pattern %q", doublestar.ErrBadPattern, p)
		}
	}
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: ignore pattern %q", doublestar.ErrBadPattern, p)
		}
	}
	return &Filter{
		patterns: slices.Clone(patterns),
		ignores:  slices.Concat(builtinIgnores, ignore),
	}, nil
}

// BuiltinIgnores returns the globs every Filter ignores.
func BuiltinIgnores() []string {
	return slices.Clone(builtinIgnores)
}

// Match reports whether a change to rel should trigger a run.
func (f *Filter) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if f.ignored(rel) {
		return false
	}
	if len(f.patterns) == 0 {
		return true
	}
	return matchAny(f.patterns, rel)
}

// SkipDir reports whether the directory rel should not be watched at all.
func (f *Filter) SkipDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	return f.ignored(rel) || f.ignored(rel+"/")
}

func (f *Filter) ignored(rel string) bool {
	return matchAny(f.ignores, rel)
}

func matchAny(patterns []string, rel string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, err := doublestar.Match(p, rel)
		return err == nil && ok
	})
}
