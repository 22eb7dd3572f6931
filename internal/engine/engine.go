// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/riglabs/rig/internal/task"
)

type (
	// ActionRunner executes the actions of a single task.
	ActionRunner interface {
		Run(ctx context.Context, t *task.Task, args task.Args, executor task.Executor) error
	}

	// Hooks observe task progress. Either field may be nil.
	Hooks struct {
		OnTaskStart  func(ctx context.Context, step Step)
		OnTaskFinish func(ctx context.Context, step Step, elapsed time.Duration, err error)
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Report summarizes an invocation.
	Report struct {
		// Executed lists, in order, the tasks whose actions all completed.
		Executed []task.QualifiedName
	}

	// Engine resolves and runs tasks from a frozen registry.
	Engine struct {
		registry *task.Registry
		runner   ActionRunner
		hooks    Hooks
	}

	// stackKey is the context key for the runtime execution stack.
	stackKey struct{}

	// memoKey is the context key for the invocation memo.
	memoKey struct{}

	// memo records the tasks started by a top-level invocation. Invocations
	// nested through InvokeTarget share it.
	memo struct {
		started map[task.QualifiedName]bool
	}
)

// WithHooks installs progress hooks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// New creates an Engine over reg. The registry must already be frozen.
func New(reg *task.Registry, runner ActionRunner, opts ...Option) (*Engine, error) {
	if reg == nil || !reg.Frozen() {
		return nil, ErrRegistryOpen
	}
	if runner == nil {
		return nil, fmt.Errorf("engine: nil action runner")
	}
	e := &Engine{registry: reg, runner: runner}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Registry returns the registry the engine resolves against.
func (e *Engine) Registry() *task.Registry { return e.registry }

// Invoke resolves targets and runs each task of the resulting sequence once,
// in order. Resolution errors are returned before any action runs. The first
// failing task stops the invocation; the returned Report lists the tasks
// that completed before it.
//
// When ctx comes from a task running under another Invoke, tasks that
// invocation has already started are skipped.
func (e *Engine) Invoke(ctx context.Context, targets ...task.Target) (Report, error) {
	var report Report
	steps, err := e.Resolve(targets...)
	if err != nil {
		return report, err
	}
	m, ok := ctx.Value(memoKey{}).(*memo)
	if !ok {
		m = &memo{started: make(map[task.QualifiedName]bool, len(steps))}
		ctx = context.WithValue(ctx, memoKey{}, m)
	}
	for _, step := range steps {
		if m.started[step.Task.Name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		m.started[step.Task.Name] = true
		if err := e.run(ctx, step); err != nil {
			return report, err
		}
		report.Executed = append(report.Executed, step.Task.Name)
	}
	return report, nil
}

// Execute runs the named task's actions unconditionally. Prerequisites are
// not run and nothing is memoized, so calling Execute twice runs the actions
// twice.
func (e *Engine) Execute(ctx context.Context, name task.QualifiedName, args []string) error {
	t, ok := e.lookup(ctx, name)
	if !ok {
		return &TaskNotFoundError{Name: string(name)}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.run(ctx, Step{Task: t, Args: task.Bind(t.Parameters, args)})
}

// ExecuteTarget implements task.Executor.
func (e *Engine) ExecuteTarget(ctx context.Context, t task.Target) error {
	return e.Execute(ctx, t.Name, t.Args)
}

// InvokeTarget implements task.Executor. The nested invocation shares the
// memo of the invocation it runs under: a task already started there,
// including the forwarding task itself, is not run again. Use
// ExecuteTarget to run a task a second time.
func (e *Engine) InvokeTarget(ctx context.Context, t task.Target) error {
	if resolved, ok := e.lookup(ctx, t.Name); ok {
		t.Name = resolved.Name
	}
	_, err := e.Invoke(ctx, t)
	return err
}

// lookup resolves name as seen from the innermost executing task, so a
// forwarding action inside a namespace finds its siblings first.
func (e *Engine) lookup(ctx context.Context, name task.QualifiedName) (*task.Task, bool) {
	var scope task.QualifiedName
	if stack := executionStack(ctx); len(stack) > 0 {
		scope = stack[len(stack)-1].Scope()
	}
	return e.registry.Resolve(scope, string(name))
}

func (e *Engine) run(ctx context.Context, step Step) error {
	stack := executionStack(ctx)
	if i := slices.Index(stack, step.Task.Name); i >= 0 {
		cycle := append(slices.Clone(stack[i:]), step.Task.Name)
		return &CycleError{Cycle: cycle}
	}
	ctx = context.WithValue(ctx, stackKey{}, append(slices.Clone(stack), step.Task.Name))

	if e.hooks.OnTaskStart != nil {
		e.hooks.OnTaskStart(ctx, step)
	}
	start := time.Now()
	err := e.runner.Run(ctx, step.Task, step.Args, e)
	if e.hooks.OnTaskFinish != nil {
		e.hooks.OnTaskFinish(ctx, step, time.Since(start), err)
	}
	return err
}

// executionStack returns the tasks currently executing on this call path,
// outermost first.
func executionStack(ctx context.Context) []task.QualifiedName {
	stack, _ := ctx.Value(stackKey{}).([]task.QualifiedName)
	return stack
}
