// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/riglabs/rig/internal/config"
	"github.com/riglabs/rig/internal/engine"
	"github.com/riglabs/rig/internal/issue"
	"github.com/riglabs/rig/internal/logging"
	"github.com/riglabs/rig/internal/runner"
	"github.com/riglabs/rig/internal/task"
	"github.com/riglabs/rig/pkg/rigfile"

	charmlog "github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reads streams and configuration through it.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// session is one loaded project: configuration, registry and engine.
	// Watch mode builds a fresh session for every run.
	session struct {
		cfg     *config.Config
		log     *charmlog.Logger
		project *rigfile.Project
		engine  *engine.Engine
		verbose bool
	}

	// setupError marks failures that happen before any task runs.
	setupError struct {
		err error
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{Config: deps.Config, stdin: deps.Stdin, stdout: deps.Stdout, stderr: deps.Stderr}
}

func (e *setupError) Error() string { return e.err.Error() }

func (e *setupError) Unwrap() error { return e.err }

func setup(err error) error {
	if err == nil {
		return nil
	}
	return &setupError{err: err}
}

// loadConfig loads configuration and builds the logger from it.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, *charmlog.Logger, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, nil, setup(err)
	}
	logger, err := logging.New(logging.Options{
		Level:  string(cfg.Log.Level),
		Format: string(cfg.Log.Format),
		Writer: a.stderr,
	})
	if err != nil {
		return nil, nil, setup(err)
	}
	return cfg, logger, nil
}

// loadSession loads configuration and the rigfile and builds an engine over
// the frozen registry.
func (a *App) loadSession(ctx context.Context, flags *rootFlags) (*session, error) {
	cfg, logger, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithLogger(ctx, logger)

	path, err := locateRigfile(flags, cfg)
	if err != nil {
		return nil, setup(issue.NewErrorContext().
			WithOperation("find rigfile").
			WithResource(flags.workDir()).
			WithIssue(issue.RigfileNotFoundId).
			WithSuggestion("Create " + rigfile.DefaultFileName + " or pass one with -f").
			Wrap(err).
			BuildError())
	}

	runtimeMode := string(cfg.DefaultRuntime)
	if flags.runtime != "" {
		runtimeMode = flags.runtime
	}

	act := runner.New(runner.Config{
		BaseDir: filepath.Dir(path),
		Stdin:   a.stdin,
		Stdout:  a.stdout,
		Stderr:  a.stderr,
	})

	reg := task.NewRegistry()
	project, err := rigfile.Load(ctx, path, reg, rigfile.LoadOptions{
		RegisterOptions: rigfile.RegisterOptions{Shell: cfg.Shell, Runtime: runtimeMode},
		Runner:          act,
		OnRecover: func(ctx context.Context, include string, cause error) {
			logging.FromContext(ctx).Warn("include failed to load, running its recover actions", "include", include, "err", cause)
		},
	})
	if err != nil {
		return nil, setup(loadError(path, err))
	}
	reg.Freeze()
	logger.Debug("rigfile loaded", "file", project.File, "files", len(project.Files), "tasks", reg.Len())

	verbose := flags.verbose || cfg.UI.Verbose
	eng, err := engine.New(reg, act, engine.WithHooks(a.hooks(logger, verbose)))
	if err != nil {
		return nil, setup(err)
	}

	return &session{cfg: cfg, log: logger, project: project, engine: eng, verbose: verbose}, nil
}

// locateRigfile picks the rigfile: -f, then the configured default, then a
// search upwards from the working directory. Relative paths are taken from
// the working directory.
func locateRigfile(flags *rootFlags, cfg *config.Config) (string, error) {
	dir := flags.workDir()
	for _, p := range []string{flags.rigfile, cfg.Rigfile} {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return rigfile.Find(dir)
}

func loadError(path string, err error) error {
	ec := issue.NewErrorContext().WithOperation("load rigfile").WithResource(path)
	switch {
	case isIncludeFailure(err):
		ec.WithIssue(issue.IncludeSetupFailedId).
			WithSuggestion("Check the include path and its recover actions")
	default:
		ec.WithIssue(issue.RigfileInvalidId)
	}
	return ec.Wrap(err).BuildError()
}

// hooks reports task progress: debug log lines always, and styled progress
// lines on stderr when verbose.
func (a *App) hooks(logger *charmlog.Logger, verbose bool) engine.Hooks {
	return engine.Hooks{
		OnTaskStart: func(_ context.Context, step engine.Step) {
			logger.Debug("task started", "task", step.Task.Name, "args", step.Args.String())
			if verbose {
				fmt.Fprintf(a.stderr, "%s %s\n", TaskStyle.Render("→"), stepLabel(step))
			}
		},
		OnTaskFinish: func(_ context.Context, step engine.Step, elapsed time.Duration, err error) {
			if err != nil {
				logger.Debug("task failed", "task", step.Task.Name, "elapsed", elapsed, "err", err)
				if verbose {
					fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("✗"), stepLabel(step))
				}
				return
			}
			logger.Debug("task finished", "task", step.Task.Name, "elapsed", elapsed)
			if verbose {
				fmt.Fprintf(a.stderr, "%s %s %s\n", SuccessStyle.Render("✓"), stepLabel(step),
					SubtitleStyle.Render("("+elapsed.Round(time.Millisecond).String()+")"))
			}
		},
	}
}

func stepLabel(step engine.Step) string {
	label := step.Task.Name.String()
	if step.Args.Len() > 0 {
		label += step.Args.String()
	}
	return label
}
