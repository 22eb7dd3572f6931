// SPDX-License-Identifier: MPL-2.0

package effect

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/riglabs/rig/internal/task"

	"github.com/u-root/u-root/pkg/core"
	"github.com/u-root/u-root/pkg/core/cat"
	"github.com/u-root/u-root/pkg/core/cp"
	"github.com/u-root/u-root/pkg/core/mkdir"
	"github.com/u-root/u-root/pkg/core/mv"
	"github.com/u-root/u-root/pkg/core/rm"
	"github.com/u-root/u-root/pkg/core/touch"
)

type (
	// coreIO is the execution environment handed to a core utility.
	coreIO struct {
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
		Dir       string
		LookupEnv func(string) (string, bool)
	}

	// UtilityError reports a failed built-in utility.
	UtilityError struct {
		Utility string
		Err     error
	}
)

// coreUtils are the utilities available both to file effects and, as
// built-in commands, to the virtual shell.
var coreUtils = map[string]func() core.Command{
	"cat":   func() core.Command { return cat.New() },
	"cp":    func() core.Command { return cp.New() },
	"mkdir": func() core.Command { return mkdir.New() },
	"mv":    func() core.Command { return mv.New() },
	"rm":    func() core.Command { return rm.New() },
	"touch": func() core.Command { return touch.New() },
}

// Error implements the error interface.
func (e *UtilityError) Error() string {
	return fmt.Sprintf("[builtin] %s: %v", e.Utility, e.Err)
}

// Unwrap returns the underlying error.
func (e *UtilityError) Unwrap() error { return e.Err }

// Utilities returns the names of the built-in utilities in sorted order.
func Utilities() []string {
	return slices.Sorted(maps.Keys(coreUtils))
}

// runCoreUtil runs the named utility. args excludes the utility name.
func runCoreUtil(ctx context.Context, name string, cio coreIO, args ...string) error {
	newCmd, ok := coreUtils[name]
	if !ok {
		return &UtilityError{Utility: name, Err: fmt.Errorf("not a built-in utility")}
	}
	cmd := newCmd()
	cmd.SetIO(cio.Stdin, cio.Stdout, cio.Stderr)
	cmd.SetWorkingDir(cio.Dir)
	if cio.LookupEnv != nil {
		cmd.SetLookupEnv(cio.LookupEnv)
	}
	if err := cmd.RunContext(ctx, args...); err != nil {
		return &UtilityError{Utility: name, Err: err}
	}
	return nil
}

// effectIO derives the utility environment from an effect context.
func effectIO(ec *task.EffectContext) coreIO {
	return coreIO{
		Stdin:     ec.Stdin,
		Stdout:    ec.Stdout,
		Stderr:    ec.Stderr,
		Dir:       ec.Dir,
		LookupEnv: lookupIn(ec.Env),
	}
}

// lookupIn returns a LookupEnv over KEY=VALUE pairs; later entries win.
func lookupIn(environ []string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		for _, kv := range slices.Backward(environ) {
			if k, v, ok := strings.Cut(kv, "="); ok && k == name {
				return v, true
			}
		}
		return "", false
	}
}
