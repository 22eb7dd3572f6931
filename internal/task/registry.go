// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/riglabs/rig/pkg/types"
)

// ErrRegistryFrozen is returned by Register once the registry has left the
// registration phase.
var ErrRegistryFrozen = errors.New("task registry is frozen")

type (
	// Task is an addressable unit of work. Tasks handed out by a frozen
	// Registry must be treated as read-only.
	Task struct {
		Name          QualifiedName
		Description   types.DescriptionText
		Prerequisites []string
		Actions       []Action
		Parameters    []Parameter
		// Sources lists the files that declared this task, in declaration
		// order. Informational only.
		Sources []string
	}

	// Declaration is one registration call. Re-declaring a name merges into
	// the existing task instead of replacing it.
	Declaration struct {
		Namespace     *Namespace
		Name          string
		Description   types.DescriptionText
		Prerequisites []string
		Actions       []Action
		Parameters    []Parameter
		Source        string
	}

	// Entry is one row of Registry.List.
	Entry struct {
		Name        QualifiedName
		Description types.DescriptionText
	}

	// Registry maps qualified names to tasks. It starts open for
	// registration and becomes read-only after Freeze. It is not safe for
	// concurrent registration.
	Registry struct {
		tasks  map[QualifiedName]*Task
		order  []QualifiedName
		frozen bool
	}
)

// NewRegistry creates an empty registry in the registration phase.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[QualifiedName]*Task)}
}

// Register declares a task or merges d into an existing declaration of the
// same qualified name: the first non-empty description wins, prerequisites
// are unioned in declaration order, actions are appended and parameters are
// unioned by name.
func (r *Registry) Register(d Declaration) (*Task, error) {
	if r.frozen {
		return nil, fmt.Errorf("register %q: %w", d.Name, ErrRegistryFrozen)
	}
	name := d.Namespace.Qualify(d.Name)
	if err := name.Validate(); err != nil {
		return nil, err
	}
	if err := d.Description.Validate(); err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}
	for _, p := range d.Prerequisites {
		if err := QualifiedName(strings.TrimPrefix(p, Separator)).Validate(); err != nil {
			return nil, fmt.Errorf("task %q: prerequisite: %w", name, err)
		}
	}
	for _, p := range d.Parameters {
		if err := validateSegment(p.Name); err != nil {
			return nil, fmt.Errorf("task %q: parameter %q: %w", name, p.Name, err)
		}
	}

	t, exists := r.tasks[name]
	if !exists {
		t = &Task{Name: name}
		r.tasks[name] = t
		r.order = append(r.order, name)
	}

	if t.Description.IsEmpty() {
		t.Description = d.Description
	}
	for _, p := range d.Prerequisites {
		if !slices.Contains(t.Prerequisites, p) {
			t.Prerequisites = append(t.Prerequisites, p)
		}
	}
	t.Actions = append(t.Actions, d.Actions...)
	for _, p := range d.Parameters {
		if !slices.ContainsFunc(t.Parameters, func(q Parameter) bool { return q.Name == p.Name }) {
			t.Parameters = append(t.Parameters, p)
		}
	}
	if d.Source != "" && !slices.Contains(t.Sources, d.Source) {
		t.Sources = append(t.Sources, d.Source)
	}
	return t, nil
}

// Freeze ends the registration phase. It is idempotent.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// Len returns the number of distinct tasks.
func (r *Registry) Len() int { return len(r.order) }

// Lookup returns the task registered under exactly name.
func (r *Registry) Lookup(name QualifiedName) (*Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Resolve looks up a prerequisite reference as seen from scope. The reference
// is tried inside scope, then in each enclosing scope, then at the root; a
// leading ":" skips the scoped candidates.
func (r *Registry) Resolve(scope QualifiedName, ref string) (*Task, bool) {
	if abs, ok := strings.CutPrefix(ref, Separator); ok {
		return r.Lookup(QualifiedName(abs))
	}
	for s := scope; s != ""; s = s.Scope() {
		if t, ok := r.tasks[s.Join(ref)]; ok {
			return t, true
		}
	}
	return r.Lookup(QualifiedName(ref))
}

// List returns every task with its description in first-registration order.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, Entry{Name: name, Description: r.tasks[name].Description})
	}
	return entries
}

// Names returns every qualified name in first-registration order.
func (r *Registry) Names() []QualifiedName {
	return slices.Clone(r.order)
}
