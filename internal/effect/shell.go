// SPDX-License-Identifier: MPL-2.0

package effect

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/riglabs/rig/internal/task"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// ShellOptions adjust a virtual shell action.
	ShellOptions struct {
		// Dir is the working directory, relative to the effect directory.
		Dir string
		// Env holds extra variables layered over the task environment.
		Env map[string]string
		// Args become the script's positional parameters.
		Args []string
	}

	// ShellExitError reports a non-zero exit status from a virtual shell
	// script. It exposes the status through ExitCode so callers treat it like
	// a process exit.
	ShellExitError struct {
		Status int
	}
)

// Error implements the error interface.
func (e *ShellExitError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Status)
}

// ExitCode returns the script's exit status.
func (e *ShellExitError) ExitCode() int { return e.Status }

// ParseScript checks script for syntax errors without running it.
func ParseScript(script string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}

// VirtualShell runs script in the embedded POSIX shell interpreter. The
// built-in utilities shadow host programs of the same name; every other
// command runs on the host.
func VirtualShell(script string, opts ShellOptions) task.Action {
	return task.NewEffect("sh", func(ctx context.Context, ec *task.EffectContext) error {
		prog, err := ParseScript(script)
		if err != nil {
			return err
		}

		environ := slices.Clone(ec.Env)
		for _, k := range slices.Sorted(maps.Keys(opts.Env)) {
			environ = append(environ, k+"="+opts.Env[k])
		}

		runOpts := []interp.RunnerOption{
			interp.Dir(resolve(ec.Dir, opts.Dir)),
			interp.Env(expand.ListEnviron(environ...)),
			interp.StdIO(ec.Stdin, ec.Stdout, ec.Stderr),
			interp.ExecHandlers(builtinHandler),
		}
		if len(opts.Args) > 0 {
			runOpts = append(runOpts, interp.Params(append([]string{"--"}, opts.Args...)...))
		}
		runner, err := interp.New(runOpts...)
		if err != nil {
			return fmt.Errorf("create interpreter: %w", err)
		}

		if err := runner.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return &ShellExitError{Status: int(status)}
			}
			return err
		}
		return nil
	}).WithSummary(firstLine(script))
}

// builtinHandler serves the built-in utilities inside the interpreter and
// hands everything else to the next handler. A built-in that fails does not
// fall back to the host program.
func builtinHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}
		if _, ok := coreUtils[args[0]]; !ok {
			return next(ctx, args)
		}
		hc := interp.HandlerCtx(ctx)
		cio := coreIO{
			Stdin:  hc.Stdin,
			Stdout: hc.Stdout,
			Stderr: hc.Stderr,
			Dir:    hc.Dir,
			LookupEnv: func(name string) (string, bool) {
				v := hc.Env.Get(name)
				return v.Str, v.Set
			},
		}
		if err := runCoreUtil(ctx, args[0], cio, args[1:]...); err != nil {
			_, _ = fmt.Fprintln(hc.Stderr, err)
			return interp.ExitStatus(1)
		}
		return nil
	}
}

func firstLine(s string) string {
	line, _, more := strings.Cut(strings.TrimSpace(s), "\n")
	if more {
		return line + " ..."
	}
	return line
}
