// SPDX-License-Identifier: MPL-2.0

package task

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type (
	// Parameter is a named task argument with an optional default value.
	Parameter struct {
		Name       string
		Default    string
		HasDefault bool
	}

	// Args is the read-only mapping of bound parameter values passed to every
	// action of a task. The zero value is an empty mapping.
	Args struct {
		values map[string]string
		order  []string
	}

	// Target names a task to invoke together with its positional arguments.
	Target struct {
		Name QualifiedName
		Args []string
	}
)

// Bind fills params positionally from values; parameters without a value take
// their default, and parameters with neither are left unset. Surplus values
// are ignored.
func Bind(params []Parameter, values []string) Args {
	var a Args
	for i, p := range params {
		switch {
		case i < len(values):
			a.set(p.Name, values[i])
		case p.HasDefault:
			a.set(p.Name, p.Default)
		}
	}
	return a
}

// BindFrom binds params by name from the arguments of a dependent task,
// falling back to defaults. This is how prerequisites see the values their
// dependents were invoked with.
func BindFrom(params []Parameter, from Args) Args {
	var a Args
	for _, p := range params {
		if v, ok := from.Lookup(p.Name); ok {
			a.set(p.Name, v)
		} else if p.HasDefault {
			a.set(p.Name, p.Default)
		}
	}
	return a
}

func (a *Args) set(name, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[name]; !exists {
		a.order = append(a.order, name)
	}
	a.values[name] = value
}

// Lookup returns the bound value for name and whether it was set.
func (a Args) Lookup(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Get returns the bound value for name, or "" when unset.
func (a Args) Get(name string) string {
	return a.values[name]
}

// Names returns the bound parameter names in binding order.
func (a Args) Names() []string {
	return slices.Clone(a.order)
}

// Len returns the number of bound parameters.
func (a Args) Len() int { return len(a.order) }

// Map returns a copy of the bound values.
func (a Args) Map() map[string]string {
	return maps.Clone(a.values)
}

// String renders the args in the same bracket form accepted by ParseTarget.
func (a Args) String() string {
	if a.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, len(a.order))
	for _, name := range a.order {
		parts = append(parts, name+"="+a.values[name])
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseTarget parses a command-line target of the form "name" or
// "name[arg1,arg2]". Whitespace around arguments is preserved, matching how
// shells already split the target string.
func ParseTarget(s string) (Target, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		name := QualifiedName(s)
		if err := name.Validate(); err != nil {
			return Target{}, err
		}
		return Target{Name: name}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return Target{}, fmt.Errorf("target %q: missing closing ']'", s)
	}
	name := QualifiedName(s[:open])
	if err := name.Validate(); err != nil {
		return Target{}, err
	}
	inner := s[open+1 : len(s)-1]
	t := Target{Name: name}
	if inner != "" {
		t.Args = strings.Split(inner, ",")
	}
	return t, nil
}

// String renders the target in ParseTarget syntax.
func (t Target) String() string {
	if len(t.Args) == 0 {
		return string(t.Name)
	}
	return string(t.Name) + "[" + strings.Join(t.Args, ",") + "]"
}
