// SPDX-License-Identifier: MPL-2.0

package effect

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/riglabs/rig/internal/task"

	"github.com/bmatcuk/doublestar/v4"
)

// Copy copies from to to, recursing into directories. Relative paths resolve
// against the effect directory.
func Copy(from, to string) task.Action {
	return task.NewEffect("cp", func(ctx context.Context, ec *task.EffectContext) error {
		return runCoreUtil(ctx, "cp", effectIO(ec), "-r", resolve(ec.Dir, from), resolve(ec.Dir, to))
	}).WithSummary(from + " " + to)
}

// Remove deletes the regular files matching patterns. Patterns use doublestar
// syntax; a pattern matching nothing is not an error.
func Remove(patterns ...string) task.Action {
	return removeAction("rm", []string{"-f"}, patterns)
}

// RemoveAll deletes the files and directory trees matching patterns.
func RemoveAll(patterns ...string) task.Action {
	return removeAction("rm_rf", []string{"-r", "-f"}, patterns)
}

// MakeDirs creates each directory along with any missing parents.
func MakeDirs(dirs ...string) task.Action {
	return task.NewEffect("mkdir", func(ctx context.Context, ec *task.EffectContext) error {
		if len(dirs) == 0 {
			return nil
		}
		args := []string{"-p"}
		for _, d := range dirs {
			args = append(args, resolve(ec.Dir, d))
		}
		return runCoreUtil(ctx, "mkdir", effectIO(ec), args...)
	}).WithSummary(strings.Join(dirs, " "))
}

// Echo writes text followed by a newline to the task's stdout.
func Echo(text string) task.Action {
	return task.NewEffect("echo", func(_ context.Context, ec *task.EffectContext) error {
		_, err := fmt.Fprintln(ec.Stdout, text)
		return err
	}).WithSummary(text)
}

func removeAction(name string, flags, patterns []string) task.Action {
	return task.NewEffect(name, func(ctx context.Context, ec *task.EffectContext) error {
		paths, err := Glob(ec.Dir, patterns...)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return nil
		}
		return runCoreUtil(ctx, "rm", effectIO(ec), slices.Concat(flags, paths)...)
	}).WithSummary(strings.Join(patterns, " "))
}

// Glob expands doublestar patterns relative to dir into absolute paths,
// dropping duplicates while keeping first-match order. Relative patterns are
// matched inside dir, so glob characters in dir itself are taken literally.
func Glob(dir string, patterns ...string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := glob(dir, p)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func glob(dir, pattern string) ([]string, error) {
	rel := path.Clean(filepath.ToSlash(pattern))
	if dir == "" || filepath.IsAbs(pattern) || !fs.ValidPath(rel) {
		return doublestar.FilepathGlob(resolve(dir, pattern))
	}
	matches, err := doublestar.Glob(os.DirFS(dir), rel)
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return matches, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
