// Package printer renders pipelines for the `logs` command (when --json
// isn't set) and the `inspect` command. Grounded on the original pretty()/Display
// implementation, colorized the way the teacher colors dashboard status
// text (internal/colors), replacing that Nix-palette package with
// fatih/color since nothing here is a gradient over a theme.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kodelint/pipelight/internal/pipeline"
)

var (
	colorSucceeded = color.New(color.FgGreen, color.Bold)
	colorFailed    = color.New(color.FgRed, color.Bold)
	colorAborted   = color.New(color.FgYellow, color.Bold)
	colorRunning   = color.New(color.FgCyan, color.Bold)
	colorDefault   = color.New(color.FgWhite)
	colorDim       = color.New(color.FgHiBlack)
)

func statusColor(s pipeline.Status) *color.Color {
	switch s {
	case pipeline.StatusSucceeded:
		return colorSucceeded
	case pipeline.StatusFailed:
		return colorFailed
	case pipeline.StatusAborted:
		return colorAborted
	case pipeline.StatusRunning, pipeline.StatusStarted:
		return colorRunning
	default:
		return colorDefault
	}
}

// Pretty writes one human-readable line per pipeline to w, colorized by
// terminal status.
func Pretty(w io.Writer, pipelines []*pipeline.Pipeline) {
	for _, p := range pipelines {
		fmt.Fprintln(w, Line(p))
	}
}

// Line renders a single pipeline summary: name, status, trigger action and
// branch (when known), and duration.
func Line(p *pipeline.Pipeline) string {
	var b strings.Builder

	c := statusColor(p.Status)
	b.WriteString(c.Sprintf("%-10s", string(p.Status)))
	b.WriteString(" ")
	b.WriteString(p.Name)

	if p.Event != nil && p.Event.Trigger.Action != nil {
		b.WriteString(colorDim.Sprintf("  [%s", p.Event.Trigger.Action.String()))
		if p.Event.Trigger.Branch != nil {
			b.WriteString(colorDim.Sprintf("@%s", *p.Event.Trigger.Branch))
		}
		b.WriteString(colorDim.Sprint("]"))
	}
	if p.Duration != nil {
		b.WriteString(colorDim.Sprintf("  %s", p.Duration.String()))
	}
	return b.String()
}

// Detail renders a full multi-line view of a pipeline for `inspect`,
// walking every step/parallel element and its captured command output.
func Detail(w io.Writer, p *pipeline.Pipeline) {
	fmt.Fprintln(w, Line(p))
	for i := range p.Steps {
		detailNode(w, &p.Steps[i], 1)
	}
}

func detailNode(w io.Writer, sp *pipeline.StepOrParallel, indent int) {
	pad := strings.Repeat("  ", indent)
	switch sp.Kind {
	case pipeline.KindStep:
		detailStep(w, pad, sp.Step)
	case pipeline.KindParallel:
		c := statusColor(sp.Parallel.Status)
		fmt.Fprintf(w, "%s%s\n", pad, c.Sprintf("parallel (%s)", sp.Parallel.Status))
		for _, s := range sp.Parallel.Steps {
			detailStep(w, pad+"  ", s)
		}
	}
}

func detailStep(w io.Writer, pad string, s *pipeline.Step) {
	c := statusColor(s.Status)
	name := s.Name
	if name == "" {
		name = "step"
	}
	fmt.Fprintf(w, "%s%s\n", pad, c.Sprintf("%s (%s)", name, s.Status))
	for _, cmd := range s.Commands {
		fmt.Fprintf(w, "%s  $ %s\n", pad, cmd.Stdin)
		if cmd.Output == nil {
			continue
		}
		if cmd.Output.Stdout != "" {
			fmt.Fprintf(w, "%s  %s\n", pad, colorDim.Sprint(strings.TrimRight(cmd.Output.Stdout, "\n")))
		}
		if cmd.Output.Stderr != "" {
			fmt.Fprintf(w, "%s  %s\n", pad, colorFailed.Sprint(strings.TrimRight(cmd.Output.Stderr, "\n")))
		}
	}
}
