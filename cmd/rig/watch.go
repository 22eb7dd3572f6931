// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riglabs/rig/internal/config"
	"github.com/riglabs/rig/internal/issue"
	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/internal/watch"
	"github.com/riglabs/rig/pkg/rigfile"
)

var errNothingToWatch = errors.New("the rigfile has no watch block")

// runWatch runs targets once, then again after every batch of changes to
// files matching the rigfile's watch block. The rigfile is reloaded for
// every run so edits to it take effect. Failed runs are reported and
// watching continues until ctx is cancelled.
func (a *App) runWatch(ctx context.Context, flags *rootFlags, targets []task.Target) error {
	s, err := a.loadSession(ctx, flags)
	if err != nil {
		return a.fail(err, flags.verbose, "")
	}
	style := a.issueStyle(s.cfg.UI.ColorScheme)

	wc := s.project.Watch
	if wc == nil {
		return a.fail(setup(issue.NewErrorContext().
			WithOperation("start watch mode").
			WithResource(s.project.File).
			WithIssue(issue.WatchFailedId).
			Wrap(errNothingToWatch).
			BuildError()), s.verbose, style)
	}
	if len(targets) == 0 {
		targets = s.project.Default
	}
	if len(targets) == 0 {
		return a.fail(setup(errors.New("no targets given and the rigfile has no default")), s.verbose, style)
	}

	debounce, err := watchDebounce(wc, s.cfg.Watch)
	if err != nil {
		return a.fail(setup(err), s.verbose, style)
	}

	label := targetsLabel(targets)
	runOnce := func(ctx context.Context) {
		run, err := a.loadSession(ctx, flags)
		if err == nil {
			_, err = run.engine.Invoke(ctx, targets...)
		}
		if err != nil && ctx.Err() == nil {
			reportError(a.stderr, err, s.verbose, style)
		}
	}

	fmt.Fprintf(a.stderr, "%s Watch mode: running %s\n", TaskStyle.Render("→"), label)
	runOnce(ctx)

	w, err := watch.New(watch.Options{
		Dir:         s.project.Dir,
		Patterns:    wc.Patterns,
		Ignore:      wc.Ignore,
		Debounce:    debounce,
		ClearScreen: wc.ClearScreen,
		Out:         a.stdout,
		Logger:      s.log,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stderr, "%s %d change(s), running %s\n", TaskStyle.Render("→"), len(changed), label)
			runOnce(ctx)
			fmt.Fprintf(a.stderr, "\n%s Watching for changes...\n", TaskStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return a.fail(setup(err), s.verbose, style)
	}

	fmt.Fprintf(a.stderr, "\n%s Watching for changes (Ctrl+C to stop)...\n", TaskStyle.Render("→"))
	if err := w.Run(ctx); err != nil {
		return a.fail(issue.NewErrorContext().
			WithOperation("watch files").
			WithResource(w.Root()).
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError(), s.verbose, style)
	}
	return nil
}

// watchDebounce prefers the rigfile's debounce, then the configured one.
func watchDebounce(wc *rigfile.WatchConfig, cfg config.WatchConfig) (time.Duration, error) {
	if wc.Debounce != "" {
		return wc.ParseDebounce()
	}
	return cfg.DebounceDuration()
}

func targetsLabel(targets []task.Target) string {
	labels := make([]string, len(targets))
	for i, t := range targets {
		labels[i] = t.String()
	}
	return strings.Join(labels, " ")
}
