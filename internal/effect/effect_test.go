// SPDX-License-Identifier: MPL-2.0

package effect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/riglabs/rig/internal/task"
)

type fakeExecutor struct {
	executed []task.Target
	invoked  []task.Target
}

func (f *fakeExecutor) ExecuteTarget(_ context.Context, t task.Target) error {
	f.executed = append(f.executed, t)
	return nil
}

func (f *fakeExecutor) InvokeTarget(_ context.Context, t task.Target) error {
	f.invoked = append(f.invoked, t)
	return nil
}

func newEffectContext(dir string, stdout *bytes.Buffer) *task.EffectContext {
	return &task.EffectContext{
		Task:   "test",
		Dir:    dir,
		Env:    []string{"HOME=" + dir},
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: stdout,
	}
}

func run(t *testing.T, a task.Action, ec *task.EffectContext) error {
	t.Helper()

	if a.Kind != task.ActionEffect {
		t.Fatalf("Kind = %v, want effect", a.Kind)
	}
	return a.Effect.Run(t.Context(), ec)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bcook.exe"), "binary")

	var out bytes.Buffer
	if err := run(t, Copy("bcook.exe", "cook.exe"), newEffectContext(dir, &out)); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "cook.exe"))
	if err != nil || string(got) != "binary" {
		t.Errorf("cook.exe = %q, %v", got, err)
	}
}

func TestCopy_MissingSource(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run(t, Copy("nope", "dest"), newEffectContext(t.TempDir(), &out))

	var ue *UtilityError
	if !errors.As(err, &ue) || ue.Utility != "cp" {
		t.Fatalf("Copy() error = %v, want *UtilityError for cp", err)
	}
	if !strings.HasPrefix(err.Error(), "[builtin] cp:") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRemove_Globs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.obj"), "")
	writeFile(t, filepath.Join(dir, "src", "deep", "b.obj"), "")
	writeFile(t, filepath.Join(dir, "cook.exe"), "")
	writeFile(t, filepath.Join(dir, "keep.txt"), "")

	var out bytes.Buffer
	if err := run(t, Remove("**/*.obj", "*.exe", "missing-*.tmp"), newEffectContext(dir, &out)); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	for _, gone := range []string{"a.obj", "src/deep/b.obj", "cook.exe"} {
		if exists(filepath.Join(dir, gone)) {
			t.Errorf("%s still exists", gone)
		}
	}
	if !exists(filepath.Join(dir, "keep.txt")) {
		t.Error("keep.txt was removed")
	}
	if !exists(filepath.Join(dir, "src", "deep")) {
		t.Error("rm removed a directory")
	}
}

func TestRemoveAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".bcook", "cache", "x.o"), "")

	var out bytes.Buffer
	if err := run(t, RemoveAll(".bcook"), newEffectContext(dir, &out)); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if exists(filepath.Join(dir, ".bcook")) {
		t.Error(".bcook still exists")
	}

	// Nothing left to match.
	if err := run(t, RemoveAll(".bcook"), newEffectContext(dir, &out)); err != nil {
		t.Errorf("second RemoveAll: %v", err)
	}
}

func TestMakeDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	if err := run(t, MakeDirs("out/bin", "out/lib"), newEffectContext(dir, &out)); err != nil {
		t.Fatalf("MakeDirs: %v", err)
	}
	for _, d := range []string{"out/bin", "out/lib"} {
		if info, err := os.Stat(filepath.Join(dir, d)); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}
}

func TestEcho(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := run(t, Echo("hello rig"), newEffectContext(t.TempDir(), &out)); err != nil {
		t.Fatalf("Echo: %v", err)
	}
	if out.String() != "hello rig\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestGlob_DedupesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "")
	writeFile(t, filepath.Join(dir, "b.go"), "")

	got, err := Glob(dir, "a.go", "*.go")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	want := []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go")}
	if !slices.Equal(got, want) {
		t.Errorf("Glob() = %v, want %v", got, want)
	}

	if _, err := Glob(dir, "[unclosed"); err == nil {
		t.Error("Glob() with bad pattern succeeded")
	}
}

func TestGlob_MetacharactersInDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "proj[1]{a,b}")
	writeFile(t, filepath.Join(dir, "out", "x.obj"), "")
	writeFile(t, filepath.Join(dir, "keep.txt"), "")

	got, err := Glob(dir, "**/*.obj")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if want := []string{filepath.Join(dir, "out", "x.obj")}; !slices.Equal(got, want) {
		t.Errorf("Glob() = %v, want %v", got, want)
	}

	var out bytes.Buffer
	if err := run(t, RemoveAll("out"), newEffectContext(dir, &out)); err != nil {
		t.Fatalf("rm_rf: %v\n%s", err, out.String())
	}
	if exists(filepath.Join(dir, "out")) {
		t.Error("out still exists after rm_rf")
	}
}

func TestForwarding(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{}
	var out bytes.Buffer
	ec := newEffectContext(t.TempDir(), &out)
	ec.Executor = exec

	target := task.Target{Name: "bcook:clean", Args: []string{"x"}}
	if err := run(t, Execute(target), ec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := run(t, Invoke(target), ec); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(exec.executed) != 1 || exec.executed[0].Name != "bcook:clean" {
		t.Errorf("executed = %v", exec.executed)
	}
	if len(exec.invoked) != 1 || exec.invoked[0].Args[0] != "x" {
		t.Errorf("invoked = %v", exec.invoked)
	}
	if got := Execute(target).String(); got != "execute bcook:clean[x]" {
		t.Errorf("String() = %q", got)
	}

	ec.Executor = nil
	if err := run(t, Execute(target), ec); !errors.Is(err, ErrNoExecutor) {
		t.Errorf("Execute() without executor = %v, want ErrNoExecutor", err)
	}
}

func TestUtilities(t *testing.T) {
	t.Parallel()

	want := []string{"cat", "cp", "mkdir", "mv", "rm", "touch"}
	if got := Utilities(); !slices.Equal(got, want) {
		t.Errorf("Utilities() = %v, want %v", got, want)
	}
}
