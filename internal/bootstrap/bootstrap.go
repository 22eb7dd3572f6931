// SPDX-License-Identifier: MPL-2.0

// Package bootstrap runs setup steps that may need one recovery action
// before they succeed, such as loading an included rigfile that only exists
// once a submodule has been checked out.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultDelay is the pause between the recovery action and the retry.
const DefaultDelay = 50 * time.Millisecond

// ErrSetupFailed is the sentinel wrapped by SetupError.
var ErrSetupFailed = errors.New("setup failed")

type (
	// Func is one bootstrap step.
	Func func(ctx context.Context) error

	// SetupError reports a bootstrap step that still failed after recovery.
	SetupError struct {
		// Resource names what was being set up.
		Resource string
		// First is the error of the initial attempt.
		First error
		// Recovery is the error of the recovery action, if it failed.
		Recovery error
		// Final is the error of the retry. It is nil when recovery failed
		// and no retry was made.
		Final error
	}

	// Option configures Ensure.
	Option func(*options)

	options struct {
		delay     time.Duration
		onRecover func(ctx context.Context, cause error)
	}
)

// Error implements the error interface.
func (e *SetupError) Error() string {
	switch {
	case e.Recovery != nil:
		return fmt.Sprintf("setup of %s failed: %v; recovery failed: %v", e.Resource, e.First, e.Recovery)
	case e.Final != nil:
		return fmt.Sprintf("setup of %s failed after recovery: %v", e.Resource, e.Final)
	default:
		return fmt.Sprintf("setup of %s failed: %v", e.Resource, e.First)
	}
}

// Unwrap exposes ErrSetupFailed and the most recent underlying error.
func (e *SetupError) Unwrap() []error {
	errs := []error{ErrSetupFailed}
	for _, err := range []error{e.Final, e.Recovery, e.First} {
		if err != nil {
			return append(errs, err)
		}
	}
	return errs
}

// WithDelay sets the pause between recovery and retry.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithRecoverHook registers fn to be called with the first failure just
// before the recovery action runs.
func WithRecoverHook(fn func(ctx context.Context, cause error)) Option {
	return func(o *options) { o.onRecover = fn }
}

// Ensure runs attempt. If it fails and recovery is non-nil, recovery runs
// exactly once and attempt is retried exactly once. Any failure left at the
// end is reported as a *SetupError; Ensure never loops.
func Ensure(ctx context.Context, resource string, attempt, recovery Func, opts ...Option) error {
	o := options{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}

	setupErr := &SetupError{Resource: resource}
	tries := 0
	backoff := retry.WithMaxRetries(1, retry.NewConstant(max(o.delay, time.Nanosecond)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tries++
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if tries > 1 {
			setupErr.Final = err
			return err
		}
		setupErr.First = err
		if recovery == nil {
			return err
		}
		if o.onRecover != nil {
			o.onRecover(ctx, err)
		}
		if rerr := recovery(ctx); rerr != nil {
			setupErr.Recovery = rerr
			return rerr
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if setupErr.First == nil {
		// The context ended before the first attempt completed.
		setupErr.First = err
	}
	return setupErr
}
