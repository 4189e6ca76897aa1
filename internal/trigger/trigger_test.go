package trigger

import (
	"testing"

	"github.com/kodelint/pipelight/internal/pipeline"
)

func strPtr(s string) *string { return &s }

func TestNoTriggersLooseAlwaysFiresStrictNever(t *testing.T) {
	p := &pipeline.Pipeline{}
	envs := []Env{
		{Branch: "main", Action: pipeline.ManualAction()},
		{Branch: "dev", Action: pipeline.HookAction("pre-push")},
		{Branch: "", Action: pipeline.WatchAction()},
	}
	for _, env := range envs {
		if !IsTriggerable(env, p) {
			t.Fatalf("env %+v: expected loose-triggerable with no declared triggers", env)
		}
		if IsTriggerableStrict(env, p) {
			t.Fatalf("env %+v: expected never strict-triggerable with no declared triggers", env)
		}
	}
}

func TestHookTriggerBranchMismatchDoesNotFire(t *testing.T) {
	action := pipeline.HookAction("pre-push")
	p := &pipeline.Pipeline{
		Triggers: []pipeline.Trigger{
			{Action: &action, Branch: strPtr("main")},
		},
	}
	env := Env{Branch: "dev", Action: pipeline.HookAction("pre-push")}
	if IsTriggerable(env, p) {
		t.Fatal("branch mismatch must not fire")
	}
	if IsTriggerableStrict(env, p) {
		t.Fatal("branch mismatch must not fire strictly either")
	}
}

func TestManualBypassesHookOnlyFilter(t *testing.T) {
	action := pipeline.HookAction("pre-push")
	p := &pipeline.Pipeline{
		Triggers: []pipeline.Trigger{
			{Action: &action},
		},
	}
	env := Env{Branch: "main", Action: pipeline.ManualAction()}
	if !IsTriggerable(env, p) {
		t.Fatal("manual invocation must bypass hook-only filters under loose matching")
	}
	if IsTriggerableStrict(env, p) {
		t.Fatal("manual invocation must not satisfy a strict hook-only trigger")
	}
}

func TestStrictImpliesLoose(t *testing.T) {
	action := pipeline.HookAction("pre-push")
	p := &pipeline.Pipeline{
		Triggers: []pipeline.Trigger{
			{Action: &action, Branch: strPtr("main")},
		},
	}
	env := Env{Branch: "main", Action: pipeline.HookAction("pre-push")}
	if !IsTriggerableStrict(env, p) {
		t.Fatal("expected strict match")
	}
	if !IsTriggerable(env, p) {
		t.Fatal("strict match must imply loose match")
	}
}

func TestWildcardBranchMatchesAny(t *testing.T) {
	action := pipeline.HookAction("post-merge")
	p := &pipeline.Pipeline{
		Triggers: []pipeline.Trigger{
			{Action: &action},
		},
	}
	for _, branch := range []string{"main", "feature/x", ""} {
		env := Env{Branch: branch, Action: pipeline.HookAction("post-merge")}
		if !IsTriggerableStrict(env, p) {
			t.Fatalf("branch %q: wildcard branch trigger should match any branch", branch)
		}
	}
}
