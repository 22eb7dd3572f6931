// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
//
//nolint:revive // Id matches the catalog's established naming.
type Id int

const (
	RigfileNotFoundId Id = iota + 1
	RigfileInvalidId
	TaskNotFoundId
	DependencyCycleId
	IncludeSetupFailedId
	ConfigLoadFailedId
	ActionFailedId
	ProgramNotFoundId
	WatchFailedId
)

type (
	// MarkdownMsg is Markdown rendered by glamour.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	//
	//nolint:revive // kept for symmetry with MarkdownMsg.
	HttpLink string

	// Issue is one catalog entry of Markdown guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the message with a "See also" list appended.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the issue with a glamour style such as "dark", "light",
// "auto" or "notty".
func (i *Issue) Render(style string) (string, error) {
	return glamour.Render(i.Markdown(), style)
}

var (
	rigfileNotFoundIssue = &Issue{
		id: RigfileNotFoundId,
		mdMsg: `
# No rigfile found!

rig looked for ` + "`rigfile.cue`" + ` in the current directory and every parent directory.

## Things you can try:
- Create a rigfile in the project root:
~~~cue
tasks: [
  {name: "build", actions: [{run: ["go", "build", "./..."]}]},
]
~~~

- Point rig at a file explicitly:
~~~
$ rig -f path/to/rigfile.cue build
~~~

- Set a default in your config file:
~~~cue
rigfile: "/path/to/rigfile.cue"
~~~`,
	}

	rigfileInvalidIssue = &Issue{
		id: RigfileInvalidId,
		mdMsg: `
# The rigfile is invalid!

The file did not validate against the rigfile schema. The error above names the file, line and field.

## Common causes:
- An action sets more than one of ` + "`sh`, `run`, `cp`, `rm`, `rm_rf`, `mkdir`, `echo`, `execute`, `invoke`" + `
- A task name contains ` + "`:`" + `, whitespace, brackets or commas
- ` + "`runtime`" + ` is set on an action that is not ` + "`sh`" + `
- A field name is misspelled (the schema is closed)`,
	}

	taskNotFoundIssue = &Issue{
		id: TaskNotFoundId,
		mdMsg: `
# Task not found!

No task with that name is declared, either as a target on the command line or as a prerequisite.

## Things you can try:
- List the declared tasks:
~~~
$ rig -T
~~~

- Names inside a namespace are qualified, e.g. ` + "`db:migrate`" + `
- Prerequisites resolve relative to the declaring task's namespace first. Prefix with ` + "`:`" + ` to name a top-level task.`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The tasks listed above depend on each other in a loop, so no order can satisfy them. Nothing was run.

## Things you can try:
- Inspect the prerequisites of each task in the cycle:
~~~
$ rig -P
~~~

- Move the shared work into a separate task that both depend on`,
	}

	includeSetupFailedIssue = &Issue{
		id: IncludeSetupFailedId,
		mdMsg: `
# An included rigfile could not be loaded!

The include was missing or invalid, and its ` + "`recover`" + ` actions did not make it loadable.

## Things you can try:
- Check the include path. It is relative to the including file.
- Run the recover actions by hand and look at their output
- Add ` + "`recover`" + ` actions that generate the file if it is produced by a tool`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Print the effective configuration:
~~~
$ rig config show
~~~

- Print where rig looks for the config file:
~~~
$ rig config path
~~~

- Check ` + "`RIG_*`" + ` environment variables, they override the file`,
	}

	actionFailedIssue = &Issue{
		id: ActionFailedId,
		mdMsg: `
# A task action failed!

rig stops at the first failing action. Tasks that had not started yet were not run.

## Things you can try:
- See what would run without running it:
~~~
$ rig -n <task>
~~~

- Run the task alone with ` + "`-v`" + ` to see each task start and finish`,
	}

	programNotFoundIssue = &Issue{
		id: ProgramNotFoundId,
		mdMsg: `
# Program not found!

A ` + "`run`" + ` action or the configured shell names a program that is not on PATH.

## Things you can try:
- Install the program or fix PATH
- Use the virtual runtime for ` + "`sh`" + ` actions, which does not need a host shell:
~~~
$ rig --runtime virtual <task>
~~~`,
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# Watch mode failed!

## Things you can try:
- Add a ` + "`watch`" + ` block with at least one pattern to the rigfile:
~~~cue
watch: {patterns: ["**/*.go"], ignore: ["vendor/**"]}
~~~

- Raise the inotify watch limit on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~`,
	}

	issues = map[Id]*Issue{
		rigfileNotFoundIssue.Id():    rigfileNotFoundIssue,
		rigfileInvalidIssue.Id():     rigfileInvalidIssue,
		taskNotFoundIssue.Id():       taskNotFoundIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		includeSetupFailedIssue.Id(): includeSetupFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		actionFailedIssue.Id():       actionFailedIssue,
		programNotFoundIssue.Id():    programNotFoundIssue,
		watchFailedIssue.Id():        watchFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
