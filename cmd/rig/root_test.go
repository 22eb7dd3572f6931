// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riglabs/rig/internal/config"
	"github.com/riglabs/rig/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// staticConfig is a config.Provider that never touches the user's files.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cfg != nil {
		return s.cfg, nil
	}
	return config.DefaultConfig(), nil
}

type cliResult struct {
	stdout string
	stderr string
	code   types.ExitCode
}

func runCLI(t *testing.T, provider config.Provider, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	if provider == nil {
		provider = staticConfig{}
	}
	app := NewApp(Dependencies{
		Config: provider,
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: exitCodeFor(err)}
}

func writeRigfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rigfile.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const echoRigfile = `
default: ["b"]
tasks: [
	{name: "a", actions: [{echo: "a"}]},
	{name: "b", description: "Second\nmore text", deps: ["a"], actions: [{echo: "b"}]},
	{name: "c", deps: ["a", "b"], actions: [{echo: "c"}]},
]
namespaces: [{name: "ns", tasks: [
	{name: "a", description: "Namespaced a", actions: [{echo: "ns:a"}]},
	{name: "use", deps: ["a"], actions: [{echo: "use"}]},
]}]
`

func TestRun_TargetsWithPrerequisites(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir, "c", "a")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if res.stdout != "a\nb\nc\n" {
		t.Errorf("stdout = %q, want each task once in order", res.stdout)
	}
}

func TestRun_ScopedPrerequisite(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir, "ns:use")
	if res.stdout != "ns:a\nuse\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestRun_DefaultTargets(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir)
	if res.code != types.ExitSuccess || res.stdout != "a\nb\n" {
		t.Errorf("exit = %d, stdout = %q", res.code, res.stdout)
	}
}

func TestRun_NoDefaultListsTasks(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, `tasks: [{name: "x", description: "Does x", actions: [{echo: "x"}]}, {name: "y"}]`)
	res := runCLI(t, nil, "-C", dir)
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d", res.code)
	}
	if res.stdout != "rig x  # Does x\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)

	described := runCLI(t, nil, "-C", dir, "-T")
	want := "rig b     # Second\nrig ns:a  # Namespaced a\n"
	if described.stdout != want {
		t.Errorf("-T stdout = %q, want %q", described.stdout, want)
	}

	all := runCLI(t, nil, "-C", dir, "-A")
	wantAll := "rig a\nrig b       # Second\nrig c\nrig ns:a    # Namespaced a\nrig ns:use\n"
	if all.stdout != wantAll {
		t.Errorf("-A stdout = %q, want %q", all.stdout, wantAll)
	}
}

func TestPrereqs(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir, "-P")
	want := "rig a\nrig b\n    a\nrig c\n    a\n    b\nrig ns:a\nrig ns:use\n    a\n"
	if res.stdout != want {
		t.Errorf("-P stdout = %q, want %q", res.stdout, want)
	}
}

func TestDryRun(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir, "-n", "c")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	for _, want := range []string{"Dry run", "1. a", "2. b", "3. c", "echo c"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "\nc\n") {
		t.Errorf("dry run executed an action:\n%s", res.stdout)
	}
}

func TestRun_Args(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, `tasks: [
	{name: "install", params: [{name: "bin"}, {name: "mode", default: "debug"}], actions: [{run: ["echo", "$bin", "${mode}"]}]},
]`)
	res := runCLI(t, nil, "-C", dir, "install[/opt/bin]")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if res.stdout != "/opt/bin debug\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rigfile    string
		args       []string
		want       types.ExitCode
		wantStderr string
	}{
		{
			name:       "unknown target",
			rigfile:    echoRigfile,
			args:       []string{"nope"},
			want:       types.ExitResolution,
			wantStderr: `task "nope" not found`,
		},
		{
			name:       "cycle",
			rigfile:    `tasks: [{name: "x", deps: ["y"]}, {name: "y", deps: ["z"]}, {name: "z", deps: ["x"]}]`,
			args:       []string{"x"},
			want:       types.ExitResolution,
			wantStderr: "cyclic dependency detected: x -> y -> z -> x",
		},
		{
			name:    "command exit status",
			rigfile: `tasks: [{name: "clean", actions: [{echo: "cleaned"}]}, {name: "build", deps: ["clean"], actions: [{run: ["sh", "-c", "exit 2"]}]}]`,
			args:    []string{"build"},
			want:    2,
		},
		{
			name:    "invalid target syntax",
			rigfile: echoRigfile,
			args:    []string{"a[x"},
			want:    types.ExitResolution,
		},
		{
			name:       "invalid rigfile",
			rigfile:    `tasks: [{name: "x", actions: [{echo: "a", sh: "b"}]}]`,
			args:       []string{"x"},
			want:       types.ExitSetup,
			wantStderr: "load rigfile",
		},
		{
			name:    "bad runtime flag",
			rigfile: echoRigfile,
			args:    []string{"--runtime", "docker", "a"},
			want:    types.ExitSetup,
		},
		{
			name:       "watch without watch block",
			rigfile:    echoRigfile,
			args:       []string{"-w", "a"},
			want:       types.ExitSetup,
			wantStderr: "no watch block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := writeRigfile(t, tt.rigfile)
			res := runCLI(t, nil, append([]string{"-C", dir}, tt.args...)...)
			if res.code != tt.want {
				t.Errorf("exit = %d, want %d\nstderr:\n%s", res.code, tt.want, res.stderr)
			}
			if tt.wantStderr != "" && !strings.Contains(res.stderr, tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, res.stderr)
			}
		})
	}
}

func TestRun_FailureStopsBeforeLaterTasks(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, `tasks: [
	{name: "clean", actions: [{echo: "cleaned"}]},
	{name: "build", deps: ["clean"], actions: [{run: ["sh", "-c", "exit 2"]}]},
	{name: "after", actions: [{echo: "after"}]},
]`)
	res := runCLI(t, nil, "-C", dir, "build", "after")
	if res.code != 2 {
		t.Errorf("exit = %d, want 2", res.code)
	}
	if res.stdout != "cleaned\n" {
		t.Errorf("stdout = %q, want only the prerequisite's output", res.stdout)
	}
}

func TestRun_MissingRigfile(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "-C", t.TempDir(), "build")
	if res.code != types.ExitSetup {
		t.Errorf("exit = %d, want %d", res.code, types.ExitSetup)
	}
	if !strings.Contains(res.stderr, "find rigfile") {
		t.Errorf("stderr = %q", res.stderr)
	}
}

func TestRun_ExplicitRigfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "other.cue")
	if err := os.WriteFile(path, []byte(`tasks: [{name: "hi", actions: [{echo: "hello"}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	res := runCLI(t, nil, "-f", path, "hi")
	if res.stdout != "hello\n" {
		t.Errorf("stdout = %q, stderr = %q", res.stdout, res.stderr)
	}
}

func TestRun_ConfiguredRigfileAndRuntime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tasks.cue"), []byte(`tasks: [{name: "v", actions: [{sh: "echo virtual $RIG_TASK"}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Rigfile = "tasks.cue"
	cfg.DefaultRuntime = config.RuntimeVirtual

	res := runCLI(t, staticConfig{cfg: cfg}, "-C", dir, "v")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if res.stdout != "virtual v\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestRun_Verbose(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, nil, "-C", dir, "-v", "b")
	if !strings.Contains(res.stderr, "→ a") || !strings.Contains(res.stderr, "✓ b") {
		t.Errorf("stderr = %q, want progress lines", res.stderr)
	}

	failed := runCLI(t, nil, "-C", dir, "-v", "missing")
	if !strings.Contains(failed.stderr, "Task not found") {
		t.Errorf("verbose failure stderr = %q, want catalog guidance", failed.stderr)
	}
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	dir := writeRigfile(t, echoRigfile)
	res := runCLI(t, staticConfig{err: config.ErrInvalidConfig}, "-C", dir, "a")
	if res.code != types.ExitSetup {
		t.Errorf("exit = %d, want %d", res.code, types.ExitSetup)
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	toml := runCLI(t, nil, "config", "show")
	if toml.code != types.ExitSuccess || !strings.Contains(toml.stdout, `default_runtime = 'native'`) {
		t.Errorf("toml: exit = %d, stdout = %q", toml.code, toml.stdout)
	}

	cue := runCLI(t, nil, "config", "show", "--format", "cue")
	if !strings.Contains(cue.stdout, `default_runtime: "native"`) {
		t.Errorf("cue stdout = %q", cue.stdout)
	}

	bad := runCLI(t, nil, "config", "show", "--format", "yaml")
	if bad.code != types.ExitFailure {
		t.Errorf("unknown format exit = %d", bad.code)
	}
}

func TestConfigPathAndInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg", "config.cue")

	res := runCLI(t, nil, "--config", path, "config", "path")
	if strings.TrimSpace(res.stdout) != path {
		t.Errorf("config path = %q, want %q", res.stdout, path)
	}

	res = runCLI(t, nil, "--config", path, "config", "init")
	if res.code != types.ExitSuccess || !strings.Contains(res.stdout, "created") {
		t.Fatalf("config init: exit = %d, stdout = %q", res.code, res.stdout)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	res = runCLI(t, nil, "--config", path, "config", "init")
	if !strings.Contains(res.stdout, "already exists") {
		t.Errorf("second init stdout = %q", res.stdout)
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "--help")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit = %d", res.code)
	}
	for _, want := range []string{
		"built-in utilities are: cat, cp, mkdir, mv, rm, touch",
		"start the rigfile search in DIR instead of the working directory",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("help missing %q:\n%s", want, res.stdout)
		}
	}
}
