// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/riglabs/rig/internal/task"

	"mvdan.cc/sh/v3/shell"
)

const (
	// ArgEnvPrefix prefixes the environment variables that expose bound
	// parameters to command actions.
	ArgEnvPrefix = "RIG_ARG_"
	// TaskEnvVar names the task being executed.
	TaskEnvVar = "RIG_TASK"
)

// FilterArgEnv drops RIG_ARG_* variables inherited from an enclosing rig
// process so nested invocations do not see their parent's parameters.
func FilterArgEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, ArgEnvPrefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// ArgEnv projects bound parameters into environment variables, once under
// their own name and once as RIG_ARG_<NAME>.
func ArgEnv(args task.Args) map[string]string {
	env := make(map[string]string, args.Len()*2)
	for _, name := range args.Names() {
		v := args.Get(name)
		env[name] = v
		env[ArgEnvPrefix+strings.ToUpper(strings.ReplaceAll(name, "-", "_"))] = v
	}
	return env
}

// buildEnv layers, lowest precedence first: the base environment, bound
// parameters, the task name and the action's own variables. os/exec keeps
// the last value of duplicate keys.
func buildEnv(base []string, t task.QualifiedName, args task.Args, extra map[string]string) []string {
	env := FilterArgEnv(base)
	env = appendSorted(env, ArgEnv(args))
	env = append(env, TaskEnvVar+"="+string(t))
	return appendSorted(env, extra)
}

func appendSorted(env []string, vars map[string]string) []string {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// expandWords expands $VAR references in each word against env, where later
// entries override earlier ones. Each word stays a single argument.
func expandWords(words, env []string) ([]string, error) {
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	out := make([]string, len(words))
	for i, w := range words {
		expanded, err := shell.Expand(w, func(name string) string { return vars[name] })
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", w, err)
		}
		out[i] = expanded
	}
	return out, nil
}
