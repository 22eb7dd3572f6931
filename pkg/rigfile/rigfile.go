// SPDX-License-Identifier: MPL-2.0

package rigfile

import (
	"fmt"
	"time"
)

const (
	// DefaultFileName is the rigfile name searched for by Find.
	DefaultFileName = "rigfile.cue"

	// RuntimeNative runs sh actions through the host shell.
	RuntimeNative = "native"
	// RuntimeVirtual runs sh actions in the embedded shell interpreter.
	RuntimeVirtual = "virtual"

	// DefaultDebounce is used when a watch block sets no debounce.
	DefaultDebounce = 500 * time.Millisecond
)

type (
	// Rigfile is the decoded form of one rigfile.cue.
	Rigfile struct {
		Includes   []Include      `json:"includes,omitempty"`
		Default    []string       `json:"default,omitempty"`
		Tasks      []TaskDef      `json:"tasks,omitempty"`
		Namespaces []NamespaceDef `json:"namespaces,omitempty"`
		Watch      *WatchConfig   `json:"watch,omitempty"`

		// FilePath is the file the rigfile was read from.
		FilePath string `json:"-"`
	}

	// Include names another rigfile, relative to the including file.
	Include struct {
		Path    string      `json:"path"`
		Recover []ActionDef `json:"recover,omitempty"`
	}

	// TaskDef declares (or re-declares) a task.
	TaskDef struct {
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Deps        []string    `json:"deps,omitempty"`
		Params      []ParamDef  `json:"params,omitempty"`
		Actions     []ActionDef `json:"actions,omitempty"`
	}

	// ParamDef declares a task parameter.
	ParamDef struct {
		Name    string  `json:"name"`
		Default *string `json:"default,omitempty"`
	}

	// NamespaceDef groups tasks under a name prefix.
	NamespaceDef struct {
		Name       string         `json:"name"`
		Tasks      []TaskDef      `json:"tasks,omitempty"`
		Namespaces []NamespaceDef `json:"namespaces,omitempty"`
	}

	// ActionDef is one action. Exactly one of the kind fields (Sh, Run, Cp,
	// Rm, RmRf, Mkdir, Echo, Execute, Invoke) is set; Runtime, Dir and Env
	// modify it.
	ActionDef struct {
		Sh      string            `json:"sh,omitempty"`
		Runtime string            `json:"runtime,omitempty"`
		Run     []string          `json:"run,omitempty"`
		Cp      *CopyDef          `json:"cp,omitempty"`
		Rm      []string          `json:"rm,omitempty"`
		RmRf    []string          `json:"rm_rf,omitempty"`
		Mkdir   []string          `json:"mkdir,omitempty"`
		Echo    *string           `json:"echo,omitempty"`
		Execute string            `json:"execute,omitempty"`
		Invoke  string            `json:"invoke,omitempty"`
		Dir     string            `json:"dir,omitempty"`
		Env     map[string]string `json:"env,omitempty"`
	}

	// CopyDef is the argument of a cp action.
	CopyDef struct {
		From string `json:"from"`
		To   string `json:"to"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// Patterns are doublestar globs relative to the rigfile directory.
		Patterns []string `json:"patterns"`
		// Ignore lists globs excluded from watching, in addition to the
		// watcher's built-in ignores.
		Ignore []string `json:"ignore,omitempty"`
		// Debounce is a Go duration string; empty means DefaultDebounce.
		Debounce    string `json:"debounce,omitempty"`
		ClearScreen bool   `json:"clear_screen,omitempty"`
	}
)

// Kinds returns the names of the kind fields set on a, in schema order.
func (a ActionDef) Kinds() []string {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(a.Sh != "", "sh")
	add(a.Run != nil, "run")
	add(a.Cp != nil, "cp")
	add(a.Rm != nil, "rm")
	add(a.RmRf != nil, "rm_rf")
	add(a.Mkdir != nil, "mkdir")
	add(a.Echo != nil, "echo")
	add(a.Execute != "", "execute")
	add(a.Invoke != "", "invoke")
	return kinds
}

// Kind returns the single kind set on a, or "" when there is not exactly
// one.
func (a ActionDef) Kind() string {
	if kinds := a.Kinds(); len(kinds) == 1 {
		return kinds[0]
	}
	return ""
}

// ParseDebounce returns the debounce duration, DefaultDebounce when unset.
func (w *WatchConfig) ParseDebounce() (time.Duration, error) {
	if w == nil || w.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid debounce %q: %w", w.Debounce, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid debounce %q: must be positive", w.Debounce)
	}
	return d, nil
}
