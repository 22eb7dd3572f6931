// SPDX-License-Identifier: MPL-2.0

package rigfile

import (
	"fmt"
	"strings"

	"github.com/riglabs/rig/internal/effect"
	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/types"
)

// DefaultShell runs native sh actions when no shell is configured.
const DefaultShell = "sh"

// RegisterOptions control how actions are built.
type RegisterOptions struct {
	// Shell is the host shell for native sh actions; it is called as
	// "<Shell> -c <script>".
	Shell string
	// Runtime is the runtime for sh actions that do not name one.
	Runtime string
}

func (o RegisterOptions) withDefaults() RegisterOptions {
	if o.Shell == "" {
		o.Shell = DefaultShell
	}
	if o.Runtime == "" {
		o.Runtime = RuntimeNative
	}
	return o
}

// Register declares every task of rf in reg: root tasks first, then each
// namespace depth first, all in file order. Includes are not followed; see
// Load.
func Register(rf *Rigfile, reg *task.Registry, opts RegisterOptions) error {
	opts = opts.withDefaults()
	if err := registerTasks(reg, nil, rf.Tasks, rf.FilePath, opts); err != nil {
		return err
	}
	return registerNamespaces(reg, nil, rf.Namespaces, rf.FilePath, opts)
}

func registerNamespaces(reg *task.Registry, parent *task.Namespace, defs []NamespaceDef, source string, opts RegisterOptions) error {
	for _, nd := range defs {
		ns, err := parent.Child(nd.Name)
		if err != nil {
			return fmt.Errorf("%s: namespace %q: %w", source, nd.Name, err)
		}
		if err := registerTasks(reg, ns, nd.Tasks, source, opts); err != nil {
			return err
		}
		if err := registerNamespaces(reg, ns, nd.Namespaces, source, opts); err != nil {
			return err
		}
	}
	return nil
}

func registerTasks(reg *task.Registry, ns *task.Namespace, defs []TaskDef, source string, opts RegisterOptions) error {
	for _, td := range defs {
		actions, err := BuildActions(td.Actions, opts)
		if err != nil {
			return fmt.Errorf("%s: task %q: %w", source, td.Name, err)
		}
		params := make([]task.Parameter, len(td.Params))
		for i, p := range td.Params {
			params[i] = task.Parameter{Name: p.Name}
			if p.Default != nil {
				params[i].Default, params[i].HasDefault = *p.Default, true
			}
		}
		if _, err := reg.Register(task.Declaration{
			Namespace:     ns,
			Name:          td.Name,
			Description:   types.DescriptionText(strings.TrimSpace(td.Description)),
			Prerequisites: td.Deps,
			Actions:       actions,
			Parameters:    params,
			Source:        source,
		}); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	return nil
}

// BuildActions converts action definitions into task actions.
func BuildActions(defs []ActionDef, opts RegisterOptions) ([]task.Action, error) {
	opts = opts.withDefaults()
	actions := make([]task.Action, 0, len(defs))
	for i, ad := range defs {
		a, err := buildAction(ad, opts)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func buildAction(ad ActionDef, opts RegisterOptions) (task.Action, error) {
	switch ad.Kind() {
	case "sh":
		runtime := ad.Runtime
		if runtime == "" {
			runtime = opts.Runtime
		}
		switch runtime {
		case RuntimeVirtual:
			return effect.VirtualShell(ad.Sh, effect.ShellOptions{Dir: ad.Dir, Env: ad.Env}), nil
		case RuntimeNative:
			return task.NewCommand(opts.Shell, "-c", ad.Sh).WithDir(ad.Dir).WithEnv(ad.Env), nil
		default:
			return task.Action{}, fmt.Errorf("unknown runtime %q", runtime)
		}
	case "run":
		return task.NewCommand(ad.Run[0], ad.Run[1:]...).WithDir(ad.Dir).WithEnv(ad.Env).WithExpansion(), nil
	case "cp":
		return effect.Copy(ad.Cp.From, ad.Cp.To), nil
	case "rm":
		return effect.Remove(ad.Rm...), nil
	case "rm_rf":
		return effect.RemoveAll(ad.RmRf...), nil
	case "mkdir":
		return effect.MakeDirs(ad.Mkdir...), nil
	case "echo":
		return effect.Echo(*ad.Echo), nil
	case "execute":
		t, err := parseRef(ad.Execute)
		return effect.Execute(t), err
	case "invoke":
		t, err := parseRef(ad.Invoke)
		return effect.Invoke(t), err
	default:
		return task.Action{}, fmt.Errorf("action must set exactly one kind, found %v", ad.Kinds())
	}
}

// parseRef parses a target reference, keeping a leading ":" that forces an
// absolute lookup.
func parseRef(ref string) (task.Target, error) {
	rest, abs := strings.CutPrefix(ref, task.Separator)
	t, err := task.ParseTarget(rest)
	if err != nil {
		return task.Target{}, err
	}
	if abs {
		t.Name = task.QualifiedName(task.Separator) + t.Name
	}
	return t, nil
}

// ParseTargets parses target references such as the default list.
func ParseTargets(refs []string) ([]task.Target, error) {
	targets := make([]task.Target, 0, len(refs))
	for _, ref := range refs {
		t, err := parseRef(ref)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
