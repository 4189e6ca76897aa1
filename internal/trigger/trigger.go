// Package trigger implements the trigger matcher (C4): it decides
// whether a pipeline's declared triggers fire for the current
// environment, under strict and loose matching policies.
package trigger

import "github.com/kodelint/pipelight/internal/pipeline"

// Env is the environment derived at process start: the current git
// branch and the current invoking action (hook, manual, or watch).
type Env struct {
	Branch string
	Action pipeline.Action
}

// matches reports whether t strictly matches env: every field of t that
// is non-nil must equal the corresponding field of env.
func matches(env Env, t pipeline.Trigger) bool {
	if t.Action != nil && !t.Action.Equal(env.Action) {
		return false
	}
	if t.Branch != nil && *t.Branch != env.Branch {
		return false
	}
	return true
}

// FiresStrict fires iff some declared trigger matches env strictly.
func FiresStrict(env Env, triggers []pipeline.Trigger) bool {
	for _, t := range triggers {
		if matches(env, t) {
			return true
		}
	}
	return false
}

// FiresLoose fires iff triggers is empty, or some trigger matches env
// strictly, or env.Action is Special(Manual) - manual invocation bypasses
// hook-only filters.
func FiresLoose(env Env, triggers []pipeline.Trigger) bool {
	if len(triggers) == 0 {
		return true
	}
	if env.Action.Kind == pipeline.ActionManual {
		return true
	}
	return FiresStrict(env, triggers)
}

// IsTriggerable is the loose-match predicate over a pipeline's declared
// triggers (§8 invariant 3/4: a pipeline with no triggers is
// loose-triggerable on every env, but never strict-triggerable).
func IsTriggerable(env Env, p *pipeline.Pipeline) bool {
	return FiresLoose(env, p.Triggers)
}

// IsTriggerableStrict is the strict-match predicate.
func IsTriggerableStrict(env Env, p *pipeline.Pipeline) bool {
	return FiresStrict(env, p.Triggers)
}

// Eligible filters pipelines to those that fire under the loose policy
// for env - the set the engine will actually execute for a `trigger`
// invocation.
func Eligible(env Env, pipelines []*pipeline.Pipeline) []*pipeline.Pipeline {
	var out []*pipeline.Pipeline
	for _, p := range pipelines {
		if IsTriggerable(env, p) {
			out = append(out, p)
		}
	}
	return out
}
