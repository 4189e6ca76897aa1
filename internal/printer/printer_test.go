package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kodelint/pipelight/internal/pipeline"
)

func TestLineIncludesNameAndStatus(t *testing.T) {
	noColor(t)
	p := &pipeline.Pipeline{Name: "build", Status: pipeline.StatusSucceeded}
	line := Line(p)
	if !strings.Contains(line, "build") || !strings.Contains(line, "Succeeded") {
		t.Fatalf("line %q missing expected fields", line)
	}
}

func TestLineIncludesTriggerAndBranch(t *testing.T) {
	noColor(t)
	branch := "main"
	action := pipeline.HookAction("pre-commit")
	p := &pipeline.Pipeline{
		Name:   "build",
		Status: pipeline.StatusFailed,
		Event: &pipeline.Event{
			Trigger: pipeline.Trigger{Action: &action, Branch: &branch},
		},
	}
	line := Line(p)
	if !strings.Contains(line, "hook:pre-commit") || !strings.Contains(line, "@main") {
		t.Fatalf("line %q missing trigger detail", line)
	}
}

func TestDetailWalksStepsAndOutput(t *testing.T) {
	noColor(t)
	p := &pipeline.Pipeline{
		Name:   "build",
		Status: pipeline.StatusSucceeded,
		Steps: []pipeline.StepOrParallel{
			{
				Kind: pipeline.KindStep,
				Step: &pipeline.Step{
					Name:   "compile",
					Status: pipeline.StatusSucceeded,
					Commands: []*pipeline.Command{
						{Stdin: "go build ./...", Output: &pipeline.Output{ExitCode: 0, Stdout: "ok\n"}},
					},
				},
			},
		},
	}
	var buf bytes.Buffer
	Detail(&buf, p)
	out := buf.String()
	if !strings.Contains(out, "compile") || !strings.Contains(out, "go build ./...") || !strings.Contains(out, "ok") {
		t.Fatalf("detail output missing expected content: %q", out)
	}
}

func noColor(t *testing.T) {
	t.Helper()
	colorSucceeded.DisableColor()
	colorFailed.DisableColor()
	colorAborted.DisableColor()
	colorRunning.DisableColor()
	colorDefault.DisableColor()
	colorDim.DisableColor()
}
