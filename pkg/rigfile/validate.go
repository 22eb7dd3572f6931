// SPDX-License-Identifier: MPL-2.0

package rigfile

import (
	"fmt"
	"strings"

	"github.com/riglabs/rig/internal/effect"
	"github.com/riglabs/rig/internal/task"
)

type (
	// ValidationError is one rule violation found after schema validation.
	ValidationError struct {
		// Field locates the violation, e.g. "tasks[1].actions[0]".
		Field   string
		Message string
	}

	// ValidationErrors collects every violation in a rigfile.
	ValidationErrors []ValidationError
)

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return "invalid rigfile: " + errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  " + e.Error()
	}
	return fmt.Sprintf("invalid rigfile: %d problems:\n%s", len(errs), strings.Join(lines, "\n"))
}

// Validate checks the rules the schema does not express.
func (rf *Rigfile) Validate() ValidationErrors {
	var v validator
	for i, inc := range rf.Includes {
		for j, a := range inc.Recover {
			v.action(fmt.Sprintf("includes[%d].recover[%d]", i, j), a)
		}
	}
	for i, ref := range rf.Default {
		v.target(fmt.Sprintf("default[%d]", i), ref)
	}
	v.tasks("tasks", rf.Tasks)
	v.namespaces("namespaces", rf.Namespaces)
	if rf.Watch != nil {
		if _, err := rf.Watch.ParseDebounce(); err != nil {
			v.add("watch.debounce", err.Error())
		}
	}
	return v.errs
}

type validator struct {
	errs ValidationErrors
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) namespaces(field string, nss []NamespaceDef) {
	for i, ns := range nss {
		f := fmt.Sprintf("%s[%d]", field, i)
		v.name(f+".name", ns.Name)
		v.tasks(f+".tasks", ns.Tasks)
		v.namespaces(f+".namespaces", ns.Namespaces)
	}
}

func (v *validator) tasks(field string, defs []TaskDef) {
	for i, td := range defs {
		f := fmt.Sprintf("%s[%d]", field, i)
		v.name(f+".name", td.Name)
		if td.Description != "" && strings.TrimSpace(td.Description) == "" {
			v.add(f+".description", "must not be only whitespace")
		}
		seen := make(map[string]bool, len(td.Params))
		for j, p := range td.Params {
			if seen[p.Name] {
				v.add(fmt.Sprintf("%s.params[%d]", f, j), "duplicate parameter %q", p.Name)
			}
			seen[p.Name] = true
		}
		for j, dep := range td.Deps {
			if strings.Contains(dep, "[") {
				v.add(fmt.Sprintf("%s.deps[%d]", f, j), "prerequisites take their arguments from the dependent task, not from brackets")
				continue
			}
			v.target(fmt.Sprintf("%s.deps[%d]", f, j), dep)
		}
		for j, a := range td.Actions {
			v.action(fmt.Sprintf("%s.actions[%d]", f, j), a)
		}
	}
}

func (v *validator) name(field, name string) {
	if strings.Contains(name, task.Separator) {
		v.add(field, "%q must not contain %q; use a namespace", name, task.Separator)
		return
	}
	if err := task.QualifiedName(name).Validate(); err != nil {
		v.add(field, "%v", err)
	}
}

func (v *validator) target(field, ref string) {
	if _, err := task.ParseTarget(strings.TrimPrefix(ref, task.Separator)); err != nil {
		v.add(field, "%v", err)
	}
}

func (v *validator) action(field string, a ActionDef) {
	kinds := a.Kinds()
	switch len(kinds) {
	case 0:
		v.add(field, "must set one of sh, run, cp, rm, rm_rf, mkdir, echo, execute or invoke")
		return
	case 1:
	default:
		v.add(field, "sets %s; an action has exactly one kind", strings.Join(kinds, " and "))
		return
	}

	kind := kinds[0]
	if a.Runtime != "" && kind != "sh" {
		v.add(field+".runtime", "only applies to sh actions")
	}
	if kind != "sh" && kind != "run" {
		if a.Dir != "" {
			v.add(field+".dir", "only applies to sh and run actions")
		}
		if len(a.Env) > 0 {
			v.add(field+".env", "only applies to sh and run actions")
		}
	}
	switch kind {
	case "sh":
		if a.Runtime == RuntimeVirtual {
			if _, err := effect.ParseScript(a.Sh); err != nil {
				v.add(field+".sh", "%v", err)
			}
		}
	case "execute":
		v.target(field+".execute", a.Execute)
	case "invoke":
		v.target(field+".invoke", a.Invoke)
	}
}
