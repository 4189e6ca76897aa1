// Package cli models the parsed command line as a value independent of
// the flag-parsing library (cobra, wired in internal/cli/root.go), and
// renders it back to a canonical string — the round-trip property the
// CLI surface in the external interfaces demands.
package cli

import (
	"fmt"
	"strings"
)

// CommandKind tags the variants of Invocation.
type CommandKind string

const (
	CommandRun        CommandKind = "run"
	CommandTrigger    CommandKind = "trigger"
	CommandWatch      CommandKind = "watch"
	CommandStop       CommandKind = "stop"
	CommandLogs       CommandKind = "logs"
	CommandInspect    CommandKind = "inspect"
	CommandLs         CommandKind = "ls"
	CommandInit       CommandKind = "init"
	CommandCompletion CommandKind = "completion"
	CommandEnable     CommandKind = "enable"
	CommandDisable    CommandKind = "disable"
)

// Toggle names the enable/disable targets.
type Toggle string

const (
	ToggleGitHooks Toggle = "git-hooks"
	ToggleWatcher  Toggle = "watcher"
)

// Invocation is the fully parsed command line, independent of cobra.
type Invocation struct {
	Command CommandKind

	// run/stop/inspect/logs target name, when applicable.
	Name string
	// run/trigger action override.
	Flag string
	// logs
	JSON bool
	Rm   bool
	// completion
	Shell string
	// enable/disable
	Toggle Toggle

	// Global flags.
	ConfigPath string
	Attach     bool
	Verbose    int // -v, up to 4
	Quiet      bool
	Internal   int // -u, up to 4
	Raw        []string
}

// String renders the canonical round-trip form of the invocation: the
// same text that, re-parsed, produces an equal value.
func (i Invocation) String() string {
	var b strings.Builder
	b.WriteString(string(i.Command))

	switch i.Command {
	case CommandRun, CommandStop, CommandInspect:
		if i.Name != "" {
			fmt.Fprintf(&b, " %q", i.Name)
		}
		if i.Flag != "" {
			fmt.Fprintf(&b, " --flag %s", i.Flag)
		}
	case CommandTrigger:
		if i.Flag != "" {
			fmt.Fprintf(&b, " --flag %s", i.Flag)
		}
	case CommandLogs:
		if i.Rm {
			b.WriteString(" rm")
		}
		if i.Name != "" {
			fmt.Fprintf(&b, " %s", i.Name)
		}
		if i.JSON {
			b.WriteString(" --json")
		}
	case CommandCompletion:
		if i.Shell != "" {
			fmt.Fprintf(&b, " %s", i.Shell)
		}
	case CommandEnable, CommandDisable:
		if i.Toggle != "" {
			fmt.Fprintf(&b, " %s", i.Toggle)
		}
	}

	if i.ConfigPath != "" {
		fmt.Fprintf(&b, " --config %s", i.ConfigPath)
	}
	if v := clampVerbosity(i.Verbose); v > 0 {
		fmt.Fprintf(&b, " -%s", strings.Repeat("v", v))
	}
	if u := clampVerbosity(i.Internal); u > 0 {
		fmt.Fprintf(&b, " -%s", strings.Repeat("u", u))
	}
	if i.Quiet {
		b.WriteString(" -q")
	}
	if i.Attach {
		b.WriteString(" --attach")
	}
	if len(i.Raw) > 0 {
		fmt.Fprintf(&b, " -- %s", strings.Join(i.Raw, " "))
	}
	return b.String()
}

// clampVerbosity caps a repeated-flag count at the documented maximum of 4.
func clampVerbosity(n int) int {
	if n > 4 {
		return 4
	}
	if n < 0 {
		return 0
	}
	return n
}
