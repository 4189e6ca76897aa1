// Package watch implements the long-running filesystem watcher mentioned
// in the external interfaces: out of scope for the core's correctness, but
// wired here since it's the one caller that sets Special(Watch) on the
// trigger matcher. Grounded on the fsnotify event-loop shape used across
// the example pack's own watch workers, debounced.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kodelint/pipelight/internal/engine"
	"github.com/kodelint/pipelight/internal/pipeline"
	"github.com/kodelint/pipelight/internal/runner"
	"github.com/kodelint/pipelight/internal/trigger"
)

// debounce collapses a burst of filesystem events (a save often emits
// several) into a single trigger.
const debounce = 200 * time.Millisecond

// Watcher re-evaluates watchable pipelines whenever an entry directly in
// the project root changes; subdirectories are not watched.
type Watcher struct {
	fsw *fsnotify.Watcher
	ctx *engine.Context
}

// New creates a Watcher rooted at ctx.ProjectRoot.
func New(ctx *engine.Context) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(ctx.ProjectRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, ctx: ctx}, nil
}

// Close releases the underlying inotify/kqueue handle.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run blocks, re-triggering watchable pipelines on every debounced
// filesystem change, until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.ctx.Log.Warn().Err(err).Msg("watcher error")

		case <-fire:
			w.triggerWatchable()
		}
	}
}

func ignored(name string) bool {
	return len(name) > 4 && name[len(name)-4:] == ".swp"
}

// triggerWatchable runs every declared pipeline that has a Special(Watch)
// trigger matching an environment with no branch set: a watch trigger
// that also names a branch does not fire here.
func (w *Watcher) triggerWatchable() {
	action := pipeline.WatchAction()
	env := trigger.Env{Action: action}

	eng := runner.New(w.ctx)
	for _, p := range w.ctx.Config.Get() {
		if !p.IsWatchable() {
			continue
		}
		if !trigger.IsTriggerable(env, p) {
			continue
		}
		t := pipeline.Trigger{Action: &action}
		if _, err := eng.Execute(context.Background(), p, t, runner.Options{}); err != nil {
			w.ctx.Log.Error().Err(err).Str("pipeline", p.Name).Msg("watch-triggered run failed to start")
		}
	}
}
