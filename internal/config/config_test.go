// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riglabs/rig/internal/issue"
	"github.com/riglabs/rig/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	if cfg.DefaultRuntime != want.DefaultRuntime || cfg.Shell != want.Shell {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != LogFormatText {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
default_runtime: "virtual"
log: level: "debug"
ui: verbose: true
`)

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual", cfg.DefaultRuntime)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	// Unset fields keep their defaults.
	if cfg.Shell != "sh" || cfg.Log.Format != LogFormatText {
		t.Errorf("unset fields lost defaults: %+v", cfg)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("Load() error = %v, want an actionable error with suggestions", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: `colour: "red"`},
		{name: "bad runtime", content: `default_runtime: "container"`},
		{name: "bad level", content: `log: level: "trace"`},
		{name: "empty shell", content: `shell: ""`},
		{name: "syntax", content: `log: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
			if !errors.Is(err, cueutil.ErrInvalidDocument) {
				t.Fatalf("Load() error = %v, want ErrInvalidDocument", err)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `log: level: "info"`)
	t.Setenv("RIG_LOG_LEVEL", "error")
	t.Setenv("RIG_UI_VERBOSE", "true")
	t.Setenv("RIG_DEFAULT_RUNTIME", "virtual")

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want env value error", cfg.Log.Level)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want env value true")
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual", cfg.DefaultRuntime)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("RIG_LOG_FORMAT", "xml")

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidLogFormat) {
		t.Fatalf("Load() error = %v, want ErrInvalidLogFormat", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := contextWithCancel(t)
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); err == nil {
		t.Fatal("Load() on a canceled context succeeded")
	}
}

func TestGenerateCUE_RoundTrips(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rigfile = "build/rigfile.cue"
	cfg.UI.Verbose = true
	path := writeConfig(t, t.TempDir(), GenerateCUE(cfg))

	got, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	if got.Rigfile != cfg.Rigfile || !got.UI.Verbose || got.Watch.Debounce != cfg.Watch.Debounce {
		t.Errorf("Load(GenerateCUE()) = %+v, want %+v", got, cfg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	created, err := CreateDefaultConfig(path)
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %v, %v; want true, nil", created, err)
	}

	if err := os.WriteFile(path, []byte(`shell: "bash"`), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = CreateDefaultConfig(path)
	if err != nil || created {
		t.Fatalf("second CreateDefaultConfig() = %v, %v; want false, nil", created, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `shell: "bash"` {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestToTOML(t *testing.T) {
	t.Parallel()

	out, err := ToTOML(DefaultConfig())
	if err != nil {
		t.Fatalf("ToTOML() error = %v", err)
	}

	var decoded map[string]any
	if err := toml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not TOML: %v\n%s", err, out)
	}
	if decoded["default_runtime"] != "native" {
		t.Errorf("default_runtime = %v", decoded["default_runtime"])
	}
	if _, ok := decoded["Source"]; ok {
		t.Error("Source leaked into TOML output")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	got, err := DefaultPath(LoadOptions{ConfigDirPath: "/etc/rig"})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/etc/rig", "config.cue"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
