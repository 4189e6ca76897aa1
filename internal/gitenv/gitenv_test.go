package gitenv

import (
	"testing"

	"github.com/kodelint/pipelight/internal/pipeline"
)

func TestCurrentActionHookFromPath(t *testing.T) {
	action := CurrentAction("/home/dev/project/.git/hooks/pre-push")
	if action.Kind != pipeline.ActionHook || action.Hook != "pre-push" {
		t.Fatalf("expected Hook(pre-push), got %+v", action)
	}
}

func TestCurrentActionHookWithTrailingSegment(t *testing.T) {
	action := CurrentAction("/home/dev/project/.git/hooks/pre-push.d")
	if action.Kind != pipeline.ActionHook || action.Hook != "pre-push.d" {
		t.Fatalf("expected Hook(pre-push.d), got %+v", action)
	}
}

func TestCurrentActionManualElsewhere(t *testing.T) {
	action := CurrentAction("/home/dev/project")
	if action.Kind != pipeline.ActionManual {
		t.Fatalf("expected Manual action outside hooks dir, got %+v", action)
	}
}
