// SPDX-License-Identifier: MPL-2.0

package effect

import (
	"context"
	"errors"

	"github.com/riglabs/rig/internal/task"
)

// ErrNoExecutor is returned by forwarding effects run outside an engine.
var ErrNoExecutor = errors.New("no task executor available")

// Execute runs target's actions unconditionally, skipping its prerequisites.
func Execute(target task.Target) task.Action {
	return task.NewEffect("execute", func(ctx context.Context, ec *task.EffectContext) error {
		if ec.Executor == nil {
			return ErrNoExecutor
		}
		return ec.Executor.ExecuteTarget(ctx, target)
	}).WithSummary(target.String())
}

// Invoke runs target with its prerequisites, skipping every task the
// enclosing invocation has already started.
func Invoke(target task.Target) task.Action {
	return task.NewEffect("invoke", func(ctx context.Context, ec *task.EffectContext) error {
		if ec.Executor == nil {
			return ErrNoExecutor
		}
		return ec.Executor.InvokeTarget(ctx, target)
	}).WithSummary(target.String())
}
