// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/types"
)

// exitNotFound mirrors the shell convention for a program that cannot be
// found.
const exitNotFound types.ExitCode = 127

type (
	// Config holds the parameters for a Runner. Zero values fall back to the
	// process's own stdio, working directory and environment.
	Config struct {
		// BaseDir is the directory relative action directories resolve
		// against, normally the directory holding the rigfile.
		BaseDir string
		// Environ is the base environment for command actions.
		Environ []string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// Runner executes the actions of one task at a time.
	Runner struct {
		baseDir string
		environ []string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
	}

	// exitCoder is implemented by errors that carry a process-style exit
	// status, such as *exec.ExitError and virtual shell exit errors.
	exitCoder interface {
		ExitCode() int
	}
)

// New creates a Runner from cfg.
func New(cfg Config) *Runner {
	r := &Runner{
		baseDir: cfg.BaseDir,
		environ: cfg.Environ,
		stdin:   cfg.Stdin,
		stdout:  cfg.Stdout,
		stderr:  cfg.Stderr,
	}
	if r.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			r.baseDir = wd
		}
	}
	if r.environ == nil {
		r.environ = os.Environ()
	}
	if r.stdin == nil {
		r.stdin = os.Stdin
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	return r
}

// BaseDir returns the directory relative paths resolve against.
func (r *Runner) BaseDir() string { return r.baseDir }

// Run executes t's actions in order with the bound args. The first failure
// stops the task and is returned as an *ActionFailure, except that an
// *ActionFailure surfacing from a forwarded task is returned unchanged so the
// innermost failing task is reported.
func (r *Runner) Run(ctx context.Context, t *task.Task, args task.Args, executor task.Executor) error {
	for i, a := range t.Actions {
		var err error
		switch a.Kind {
		case task.ActionCommand:
			err = r.runCommand(ctx, t.Name, args, a.Command)
		case task.ActionEffect:
			err = r.runEffect(ctx, t.Name, args, a.Effect, executor)
		default:
			err = fmt.Errorf("unknown action kind %d", a.Kind)
		}
		if err == nil {
			continue
		}
		var nested *ActionFailure
		if errors.As(err, &nested) {
			return err
		}
		return &ActionFailure{
			Task:     t.Name,
			Index:    i,
			Action:   a.String(),
			ExitCode: failureCode(ctx, err),
			Err:      failureCause(ctx, err),
		}
	}
	return nil
}

func (r *Runner) runCommand(ctx context.Context, name task.QualifiedName, args task.Args, c task.Command) error {
	env := buildEnv(r.environ, name, args, c.Env)
	argv := c.Argv()
	if c.Expand {
		var err error
		if argv, err = expandWords(argv, env); err != nil {
			return err
		}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.resolveDir(c.Dir)
	cmd.Env = env
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return cmd.Run()
}

func (r *Runner) runEffect(ctx context.Context, name task.QualifiedName, args task.Args, e task.Effect, executor task.Executor) error {
	if e.Run == nil {
		return fmt.Errorf("effect %q has no body", e.Name)
	}
	return e.Run(ctx, &task.EffectContext{
		Task:     name,
		Args:     args,
		Dir:      r.baseDir,
		Env:      buildEnv(r.environ, name, args, nil),
		Stdin:    r.stdin,
		Stdout:   r.stdout,
		Stderr:   r.stderr,
		Executor: executor,
	})
}

func (r *Runner) resolveDir(dir string) string {
	switch {
	case dir == "":
		return r.baseDir
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(r.baseDir, dir)
	}
}

// failureCode maps an action error onto the exit code reported for it.
func failureCode(ctx context.Context, err error) types.ExitCode {
	if ctx.Err() != nil {
		return types.ExitInterrupted
	}
	if errors.Is(err, exec.ErrNotFound) {
		return exitNotFound
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		code := types.ExitCode(ec.ExitCode()).Clamp()
		if code.IsSuccess() {
			return types.ExitFailure
		}
		return code
	}
	return types.ExitFailure
}

// failureCause drops *exec.ExitError, whose message only repeats the exit
// status already carried by ActionFailure.ExitCode. A cancelled context is
// reported as the cause so callers can test for context.Canceled.
func failureCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("interrupted: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && err == error(exitErr) {
		return nil
	}
	return err
}
