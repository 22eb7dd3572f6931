// SPDX-License-Identifier: MPL-2.0

package rigfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/riglabs/rig/internal/bootstrap"
	"github.com/riglabs/rig/internal/task"
)

type (
	// ActionRunner runs the recover actions of an include.
	ActionRunner interface {
		Run(ctx context.Context, t *task.Task, args task.Args, executor task.Executor) error
	}

	// LoadOptions configure Load.
	LoadOptions struct {
		RegisterOptions
		// Runner runs include recover actions. Includes with recover
		// actions fail to recover when it is nil.
		Runner ActionRunner
		// OnRecover is called before an include's recover actions run.
		OnRecover func(ctx context.Context, include string, cause error)
		// BootstrapOptions are passed to bootstrap.Ensure for every include.
		BootstrapOptions []bootstrap.Option
	}

	// Project is the result of loading a root rigfile and its includes.
	Project struct {
		// File is the absolute path of the root rigfile.
		File string
		// Dir is the directory of the root rigfile; relative action paths
		// resolve against it.
		Dir string
		// Files lists every loaded rigfile, includes first, in the order
		// their tasks were registered.
		Files []string
		// Default holds the root rigfile's default targets.
		Default []task.Target
		// Watch is the root rigfile's watch block, or nil.
		Watch *WatchConfig
	}

	loader struct {
		reg     *task.Registry
		opts    LoadOptions
		project *Project
		active  map[string]bool
		loaded  map[string]bool
	}
)

// Load parses the rigfile at path, loads its includes recursively and
// registers all tasks into reg. Included files are registered before the
// file that includes them, each file at most once.
func Load(ctx context.Context, path string, reg *task.Registry, opts LoadOptions) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	rf, err := Parse(abs)
	if err != nil {
		return nil, err
	}
	defaults, err := ParseTargets(rf.Default)
	if err != nil {
		return nil, fmt.Errorf("%s: default: %w", abs, err)
	}

	l := &loader{
		reg:  reg,
		opts: opts,
		project: &Project{
			File:    abs,
			Dir:     filepath.Dir(abs),
			Default: defaults,
			Watch:   rf.Watch,
		},
		active: make(map[string]bool),
		loaded: make(map[string]bool),
	}
	if err := l.load(ctx, rf); err != nil {
		return nil, err
	}
	return l.project, nil
}

func (l *loader) load(ctx context.Context, rf *Rigfile) error {
	l.active[rf.FilePath] = true
	defer delete(l.active, rf.FilePath)

	for _, inc := range rf.Includes {
		incPath := inc.Path
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(filepath.Dir(rf.FilePath), incPath)
		}
		if l.active[incPath] {
			return fmt.Errorf("%s: include cycle through %s", rf.FilePath, incPath)
		}
		if l.loaded[incPath] {
			continue
		}

		var included *Rigfile
		attempt := func(context.Context) error {
			var err error
			included, err = Parse(incPath)
			return err
		}
		if err := bootstrap.Ensure(ctx, inc.Path, attempt, l.recovery(inc, rf.FilePath), l.bootstrapOptions(inc.Path)...); err != nil {
			return err
		}
		if err := l.load(ctx, included); err != nil {
			return err
		}
	}

	if err := Register(rf, l.reg, l.opts.RegisterOptions); err != nil {
		return err
	}
	l.loaded[rf.FilePath] = true
	l.project.Files = append(l.project.Files, rf.FilePath)
	return nil
}

// recovery builds the recover step of an include, or nil when it has none.
func (l *loader) recovery(inc Include, from string) bootstrap.Func {
	if len(inc.Recover) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		if l.opts.Runner == nil {
			return fmt.Errorf("no runner for recover actions of %s", inc.Path)
		}
		actions, err := BuildActions(inc.Recover, l.opts.RegisterOptions)
		if err != nil {
			return fmt.Errorf("%s: include %s: %w", from, inc.Path, err)
		}
		t := &task.Task{Name: task.QualifiedName("recover " + inc.Path), Actions: actions}
		return l.opts.Runner.Run(ctx, t, task.Args{}, nil)
	}
}

func (l *loader) bootstrapOptions(include string) []bootstrap.Option {
	opts := l.opts.BootstrapOptions
	if l.opts.OnRecover != nil {
		opts = append(opts[:len(opts):len(opts)], bootstrap.WithRecoverHook(func(ctx context.Context, cause error) {
			l.opts.OnRecover(ctx, include, cause)
		}))
	}
	return opts
}
