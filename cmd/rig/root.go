// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the rig command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/riglabs/rig/internal/config"
	"github.com/riglabs/rig/internal/effect"
	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/rigfile"
	"github.com/riglabs/rig/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the values of the root command's flags.
type rootFlags struct {
	rigfile    string
	directory  string
	configPath string
	runtime    string
	listTasks  bool
	listAll    bool
	prereqs    bool
	dryRun     bool
	watch      bool
	verbose    bool
}

// workDir is -C, or the process working directory.
func (f *rootFlags) workDir() string {
	if f.directory != "" {
		return f.directory
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func (f *rootFlags) validate() error {
	if f.runtime != "" {
		if err := config.RuntimeMode(f.runtime).Validate(); err != nil {
			return fmt.Errorf("--runtime: %w", err)
		}
	}
	if f.watch && f.dryRun {
		return errors.New("--watch and --dry-run cannot be used together")
	}
	if f.watch && (f.listTasks || f.listAll || f.prereqs) {
		return errors.New("--watch cannot be combined with a listing flag")
	}
	return nil
}

// NewRootCommand builds the rig command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "rig [flags] [task[args]...]",
		Short: "A declarative task runner",
		Long: TitleStyle.Render("rig") + SubtitleStyle.Render(" - a declarative task runner") + `

rig runs the tasks declared in a CUE rigfile. Each named target runs after
its prerequisites, and every task runs at most once per invocation.

Arguments are bound to a task's parameters by position:
  rig install[/usr/local/bin]

Without a target rig runs the rigfile's default targets, or lists the
described tasks when there are none. A task whose name clashes with a
subcommand can be run after --:
  rig -- config

sh actions with runtime "virtual" run in an embedded shell whose built-in
utilities are: ` + strings.Join(effect.Utilities(), ", "),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runRoot(cmd.Context(), flags, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is "+defaultConfigHint()+")")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print a progress line per task and detailed errors")

	f := root.Flags()
	f.StringVarP(&flags.rigfile, "rigfile", "f", "", "rigfile to load (default: search upwards for "+rigfile.DefaultFileName+")")
	f.StringVarP(&flags.directory, "directory", "C", "", "start the rigfile search in `DIR` instead of the working directory")
	f.StringVar(&flags.runtime, "runtime", "", "default runtime for sh actions (native|virtual)")
	f.BoolVarP(&flags.listTasks, "tasks", "T", false, "list tasks that have a description")
	f.BoolVarP(&flags.listAll, "all", "A", false, "list every task")
	f.BoolVarP(&flags.prereqs, "prereqs", "P", false, "print each task with its prerequisites")
	f.BoolVarP(&flags.dryRun, "dry-run", "n", false, "print the execution order without running anything")
	f.BoolVarP(&flags.watch, "watch", "w", false, "run the targets again whenever watched files change")

	root.AddCommand(newConfigCommand(app, flags))

	return root
}

func defaultConfigHint() string {
	path, err := config.DefaultPath(config.LoadOptions{})
	if err != nil {
		return filepath.Join("$XDG_CONFIG_HOME", config.AppName, "config.cue")
	}
	return path
}

// runRoot is the root command: list, dry-run, watch or run targets.
func (a *App) runRoot(ctx context.Context, flags *rootFlags, args []string) error {
	if err := flags.validate(); err != nil {
		return a.fail(setup(err), flags.verbose, "")
	}

	targets := make([]task.Target, 0, len(args))
	for _, arg := range args {
		t, err := task.ParseTarget(arg)
		if err != nil {
			reportError(a.stderr, err, flags.verbose, a.issueStyle(config.ColorSchemeAuto))
			return &ExitError{Code: types.ExitResolution}
		}
		targets = append(targets, t)
	}

	if flags.watch {
		return a.runWatch(ctx, flags, targets)
	}

	s, err := a.loadSession(ctx, flags)
	if err != nil {
		return a.fail(err, flags.verbose, "")
	}
	style := a.issueStyle(s.cfg.UI.ColorScheme)

	switch {
	case flags.prereqs:
		renderPrereqs(a.stdout, s.engine.Registry())
		return nil
	case flags.listTasks || flags.listAll:
		renderTaskList(a.stdout, s.engine.Registry(), flags.listAll)
		return nil
	}

	if len(targets) == 0 {
		if len(s.project.Default) == 0 {
			renderTaskList(a.stdout, s.engine.Registry(), false)
			return nil
		}
		targets = s.project.Default
	}

	if flags.dryRun {
		steps, err := s.engine.Resolve(targets...)
		if err != nil {
			return a.fail(err, s.verbose, style)
		}
		renderDryRun(a.stdout, steps)
		return nil
	}

	report, err := s.engine.Invoke(ctx, targets...)
	s.log.Debug("invocation finished", "executed", len(report.Executed))
	if err != nil {
		return a.fail(err, s.verbose, style)
	}
	return nil
}

// fail reports err and converts it into an ExitError carrying the exit
// code. An empty style means configuration may not be loaded yet.
func (a *App) fail(err error, verbose bool, style string) error {
	if style == "" {
		style = a.issueStyle(config.ColorSchemeAuto)
	}
	reportError(a.stderr, err, verbose, style)
	return &ExitError{Code: exitCodeFor(err)}
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the rig command line and exits the process.
func Execute() {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	if err != nil {
		os.Exit(int(exitCodeOrFailure(err)))
	}
}

// errorHandler leaves errors that rig already reported alone and lets fang
// render the rest, such as flag parsing errors.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

func exitCodeOrFailure(err error) types.ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}
