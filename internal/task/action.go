// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// ActionCommand spawns an external process and waits for it.
	ActionCommand ActionKind = iota + 1
	// ActionEffect runs an in-process operation.
	ActionEffect
)

type (
	// ActionKind tags which variant an Action holds.
	ActionKind int

	// Action is one executable step of a task. Exactly one of Command or
	// Effect is meaningful, selected by Kind.
	Action struct {
		Kind    ActionKind
		Command Command
		Effect  Effect
	}

	// Command describes an external process: program, arguments, working
	// directory and extra environment variables.
	Command struct {
		Program string
		Args    []string
		Dir     string
		Env     map[string]string
		// Expand makes the runner expand $VAR and ${VAR} references in
		// Program and Args against the command's environment before
		// spawning it.
		Expand bool
	}

	// Effect is an in-process side effect. Name is used for display only.
	Effect struct {
		Name string
		// Summary is a short human-readable rendering of the effect's
		// arguments, shown by dry runs.
		Summary string
		Run     EffectFunc
	}

	// EffectFunc is the body of an Effect action.
	EffectFunc func(ctx context.Context, ec *EffectContext) error

	// EffectContext is the ambient context handed to effect actions.
	EffectContext struct {
		// Task is the name of the task the effect belongs to.
		Task QualifiedName
		// Args are the task's bound parameters.
		Args Args
		// Dir is the directory relative paths resolve against.
		Dir string
		// Env is the environment a command action of the same task would
		// receive, as KEY=VALUE pairs.
		Env    []string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Executor forwards to other tasks. It is nil when the effect runs
		// outside an engine.
		Executor Executor
	}

	// Executor is implemented by the invocation engine so that effects can
	// forward to other tasks.
	Executor interface {
		// ExecuteTarget runs one task's actions unconditionally, without
		// prerequisites.
		ExecuteTarget(ctx context.Context, t Target) error
		// InvokeTarget runs t and its prerequisites, skipping tasks the
		// enclosing invocation has already started.
		InvokeTarget(ctx context.Context, t Target) error
	}
)

// String returns the kind's name.
func (k ActionKind) String() string {
	switch k {
	case ActionCommand:
		return "command"
	case ActionEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// NewCommand builds a command action.
func NewCommand(program string, args ...string) Action {
	return Action{Kind: ActionCommand, Command: Command{Program: program, Args: args}}
}

// NewEffect builds an effect action.
func NewEffect(name string, fn EffectFunc) Action {
	return Action{Kind: ActionEffect, Effect: Effect{Name: name, Run: fn}}
}

// WithDir returns a copy of a command action running in dir. Effects are
// returned unchanged.
func (a Action) WithDir(dir string) Action {
	if a.Kind == ActionCommand {
		a.Command.Dir = dir
	}
	return a
}

// WithEnv returns a copy of a command action with extra environment
// variables.
func (a Action) WithEnv(env map[string]string) Action {
	if a.Kind == ActionCommand && len(env) > 0 {
		merged := maps.Clone(a.Command.Env)
		if merged == nil {
			merged = make(map[string]string, len(env))
		}
		maps.Copy(merged, env)
		a.Command.Env = merged
	}
	return a
}

// WithExpansion returns a copy of a command action whose words are
// parameter-expanded at run time.
func (a Action) WithExpansion() Action {
	if a.Kind == ActionCommand {
		a.Command.Expand = true
	}
	return a
}

// WithSummary returns a copy of an effect action with a display summary.
func (a Action) WithSummary(summary string) Action {
	if a.Kind == ActionEffect {
		a.Effect.Summary = summary
	}
	return a
}

// String renders the action for dry runs and error messages.
func (a Action) String() string {
	switch a.Kind {
	case ActionCommand:
		return a.Command.String()
	case ActionEffect:
		if a.Effect.Summary == "" {
			return a.Effect.Name
		}
		return a.Effect.Name + " " + a.Effect.Summary
	default:
		return "<invalid action>"
	}
}

// String renders the command line with shell quoting.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	for _, w := range append([]string{c.Program}, c.Args...) {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = w
		}
		words = append(words, q)
	}
	line := strings.Join(words, " ")
	if c.Dir != "" {
		line += " (in " + c.Dir + ")"
	}
	return line
}

// Argv returns program followed by args.
func (c Command) Argv() []string {
	return append([]string{c.Program}, slices.Clone(c.Args)...)
}
