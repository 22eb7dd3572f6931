// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/riglabs/rig/internal/bootstrap"
	"github.com/riglabs/rig/internal/config"
	"github.com/riglabs/rig/internal/engine"
	"github.com/riglabs/rig/internal/issue"
	"github.com/riglabs/rig/internal/runner"
	"github.com/riglabs/rig/internal/watch"
	"github.com/riglabs/rig/pkg/cueutil"
	"github.com/riglabs/rig/pkg/rigfile"
	"github.com/riglabs/rig/pkg/types"

	"github.com/charmbracelet/x/term"
)

// exitProgramNotFound is the code the runner reports for a missing program.
const exitProgramNotFound types.ExitCode = 127

// exitCodeFor maps any error reaching the CLI onto the process exit code.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return types.ExitInterrupted
	}
	var se *setupError
	if errors.As(err, &se) {
		return types.ExitSetup
	}
	return engine.ExitCodeFor(err)
}

func isIncludeFailure(err error) bool {
	return errors.Is(err, bootstrap.ErrSetupFailed)
}

// issueFor picks the catalog entry explaining err. An issue attached by an
// ActionableError wins.
func issueFor(err error) issue.Id {
	if ae, ok := issue.Find(err); ok && ae.IssueID != 0 {
		return ae.IssueID
	}
	var failure *runner.ActionFailure
	switch {
	case errors.As(err, &failure):
		if failure.ExitCode == exitProgramNotFound {
			return issue.ProgramNotFoundId
		}
		return issue.ActionFailedId
	case errors.Is(err, engine.ErrTaskNotFound):
		return issue.TaskNotFoundId
	case errors.Is(err, engine.ErrCyclicDependency):
		return issue.DependencyCycleId
	case isIncludeFailure(err):
		return issue.IncludeSetupFailedId
	case errors.Is(err, rigfile.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return issue.RigfileNotFoundId
	case errors.Is(err, cueutil.ErrInvalidDocument):
		return issue.RigfileInvalidId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound):
		return issue.ConfigLoadFailedId
	case errors.Is(err, watch.ErrResourcesExhausted):
		return issue.WatchFailedId
	}
	return 0
}

// reportError writes err to w. Verbose output adds the error chain and the
// catalog guidance rendered with style.
func reportError(w io.Writer, err error, verbose bool, style string) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, WarningStyle.Render("rig: interrupted"))
		return
	}

	msg := err.Error()
	if ae, ok := issue.Find(err); ok {
		msg = ae.Format(verbose)
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("rig:"), msg)

	id := issueFor(err)
	if id == 0 {
		return
	}
	if !verbose {
		fmt.Fprintln(w, SubtitleStyle.Render("Run again with -v for help on this error."))
		return
	}
	rendered, renderErr := issue.Get(id).Render(style)
	if renderErr != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

// issueStyle picks the glamour style for catalog guidance: plain text when
// stderr is not a terminal, otherwise the configured color scheme.
func (a *App) issueStyle(scheme config.ColorScheme) string {
	f, ok := a.stderr.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return "notty"
	}
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
