// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/riglabs/rig/internal/engine"
	"github.com/riglabs/rig/internal/task"
)

// renderTaskList prints "rig <name>  # <first description line>" rows in
// registration order. Without all, tasks lacking a description are left out.
func renderTaskList(w io.Writer, reg *task.Registry, all bool) {
	entries := reg.List()
	shown := entries[:0:0]
	for _, e := range entries {
		if all || !e.Description.IsEmpty() {
			shown = append(shown, e)
		}
	}

	width := 0
	for _, e := range shown {
		width = max(width, len(e.Name))
	}

	for _, e := range shown {
		name := TaskStyle.Render(e.Name.String()) + strings.Repeat(" ", width-len(e.Name))
		if e.Description.IsEmpty() {
			fmt.Fprintf(w, "rig %s\n", strings.TrimRight(name, " "))
			continue
		}
		fmt.Fprintf(w, "rig %s  %s\n", name, SubtitleStyle.Render("# "+e.Description.FirstLine()))
	}
}

// renderPrereqs prints every task followed by its prerequisites as written
// in the rigfile, one per indented line.
func renderPrereqs(w io.Writer, reg *task.Registry) {
	for _, name := range reg.Names() {
		t, _ := reg.Lookup(name)
		fmt.Fprintf(w, "rig %s\n", TaskStyle.Render(name.String()))
		for _, p := range t.Prerequisites {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
}

// renderDryRun prints the resolved execution order with each task's actions.
func renderDryRun(w io.Writer, steps []engine.Step) {
	fmt.Fprintln(w, TitleStyle.Render("Dry run"))
	for i, step := range steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, TaskStyle.Render(stepLabel(step)))
		if len(step.Task.Actions) == 0 {
			fmt.Fprintf(w, "   %s\n", ActionStyle.Render("(no actions)"))
			continue
		}
		for _, a := range step.Task.Actions {
			fmt.Fprintf(w, "   %s\n", ActionStyle.Render(a.String()))
		}
	}
}
