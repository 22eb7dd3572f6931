// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"slices"

	"github.com/riglabs/rig/internal/task"
)

type (
	// Step is one entry of a resolved execution sequence.
	Step struct {
		Task *task.Task
		Args task.Args
	}

	// resolver holds the per-resolution state: tasks already placed and the
	// current traversal path.
	resolver struct {
		registry *task.Registry
		placed   map[task.QualifiedName]bool
		path     []task.QualifiedName
		steps    []Step
	}
)

// Resolve computes the execution sequence for targets without running
// anything. Targets are resolved left to right into one sequence, so a task
// shared between targets appears once, at its first occurrence.
func (e *Engine) Resolve(targets ...task.Target) ([]Step, error) {
	r := &resolver{
		registry: e.registry,
		placed:   make(map[task.QualifiedName]bool),
	}
	for _, target := range targets {
		t, ok := e.registry.Resolve("", string(target.Name))
		if !ok {
			return nil, &TaskNotFoundError{Name: string(target.Name)}
		}
		if err := r.visit(t, task.Bind(t.Parameters, target.Args)); err != nil {
			return nil, err
		}
	}
	return r.steps, nil
}

func (r *resolver) visit(t *task.Task, args task.Args) error {
	if r.placed[t.Name] {
		return nil
	}
	if i := slices.Index(r.path, t.Name); i >= 0 {
		cycle := append(slices.Clone(r.path[i:]), t.Name)
		return &CycleError{Cycle: cycle}
	}

	r.path = append(r.path, t.Name)
	for _, ref := range t.Prerequisites {
		dep, ok := r.registry.Resolve(t.Name.Scope(), ref)
		if !ok {
			return &TaskNotFoundError{Name: ref, RequiredBy: t.Name}
		}
		if err := r.visit(dep, task.BindFrom(dep.Parameters, args)); err != nil {
			return err
		}
	}
	r.path = r.path[:len(r.path)-1]

	r.placed[t.Name] = true
	r.steps = append(r.steps, Step{Task: t, Args: args})
	return nil
}
