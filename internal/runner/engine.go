// Package runner implements the pipeline state machine (C5): it orchestrates
// steps and parallel groups, applies on_success/on_failure/on_abortion
// cascades, honors non_blocking, and snapshots the log store on every
// transition. Grounded on the teacher's PipelineExecutor
// (internal/ops/pipeline.go) - the zerolog sub-logger, uuid run
// identifier, and store-backed persistence all carry over; the
// sync.WaitGroup fan-out is generalized to golang.org/x/sync/errgroup for
// the Parallel step-group case.
package runner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kodelint/pipelight/internal/engine"
	"github.com/kodelint/pipelight/internal/liveness"
	"github.com/kodelint/pipelight/internal/pipeline"
	"github.com/kodelint/pipelight/internal/pipestore"
	"github.com/kodelint/pipelight/internal/procexec"
)

// Engine drives pipeline execution against a log store.
type Engine struct {
	log   zerolog.Logger
	store *pipestore.Store
	ctx   *engine.Context
}

// New creates an Engine from the shared process context.
func New(ectx *engine.Context) *Engine {
	return &Engine{
		log:   ectx.Log.With().Str("component", "runner").Logger(),
		store: pipestore.New(ectx.Log, ectx.LogsDir),
		ctx:   ectx,
	}
}

// Store exposes the underlying log store for query-surface callers.
func (e *Engine) Store() *pipestore.Store { return e.store }

// Options configures a single Execute call.
type Options struct {
	Mode Mode
	// Sid is the opaque session identifier attached to the event, if the
	// invocation is part of a batch.
	Sid *string
	// AbortCh, when non-nil, is checked between steps; closing it signals
	// an externally-observed abort (e.g. this process received a terminate
	// signal from `stop`) that supersedes whatever status the pipeline
	// would otherwise reach.
	AbortCh <-chan struct{}
}

// Mode is the process-wide I/O mode new runs execute under.
type Mode = procexec.Mode

// run carries the state threaded through one Execute call's recursive
// descent, so runStep/runParallel/cascades don't need a long parameter
// list.
type run struct {
	ctx     context.Context
	mode    Mode
	runID   string
	shell   string
	outDir  string
	abortCh <-chan struct{}

	// mu serializes status mutations and snapshots taken while a
	// Parallel group's children run concurrently; unused (uncontended)
	// on the purely sequential path.
	mu sync.Mutex
}

func (r *run) aborted() bool {
	if r.abortCh == nil {
		return false
	}
	select {
	case <-r.abortCh:
		return true
	default:
		return false
	}
}

// Execute runs p to completion: Started -> Running -> {Succeeded | Failed
// | Aborted}, snapshotting after every transition.
func (e *Engine) Execute(ctx context.Context, p *pipeline.Pipeline, trigger pipeline.Trigger, opts Options) (*pipeline.Pipeline, error) {
	p.ID = uuid.New().String()
	pid := os.Getpid()
	p.Event = &pipeline.Event{
		Trigger: trigger,
		Date:    time.Now().UTC().Format(time.RFC3339Nano),
		Pid:     &pid,
		Sid:     opts.Sid,
	}
	p.Status = pipeline.StatusStarted
	e.snapshot(p)

	started := time.Now()
	p.Status = pipeline.StatusRunning
	e.snapshot(p)

	r := &run{ctx: ctx, mode: opts.Mode, runID: p.ID, shell: e.ctx.Shell, outDir: e.ctx.OutDir, abortCh: opts.AbortCh}

	var aborted, failed bool
	for i := range p.Steps {
		if r.aborted() {
			aborted = true
			break
		}
		elem := &p.Steps[i]
		status := e.runNode(r, p, elem)
		e.snapshot(p)
		e.runCascadeList(r, p, elem.Cascades(status))
		e.snapshot(p)

		if status == pipeline.StatusFailed && !elem.IsNonBlocking() {
			failed = true
			break
		}
		if r.aborted() {
			aborted = true
			break
		}
	}

	elapsed := time.Since(started)
	p.Duration = &elapsed

	switch {
	case aborted:
		p.Status = pipeline.StatusAborted
	case failed:
		p.Status = pipeline.StatusFailed
	default:
		p.Status = pipeline.StatusSucceeded
	}
	e.snapshot(p)

	// Pipeline-level cascades run after the full pipeline terminates;
	// their own failures are recorded for observability only and never
	// alter the terminal status already written above.
	e.runCascadeList(r, p, p.Cascades(p.Status))
	e.snapshot(p)

	e.log.Info().Str("pipeline", p.Name).Str("run", p.ID).Str("status", string(p.Status)).
		Dur("duration", elapsed).Msg("pipeline finished")

	return p, nil
}

func (e *Engine) runNode(r *run, p *pipeline.Pipeline, sp *pipeline.StepOrParallel) pipeline.Status {
	switch sp.Kind {
	case pipeline.KindStep:
		return e.runStep(r, p, sp.Step)
	case pipeline.KindParallel:
		return e.runParallel(r, p, sp.Parallel)
	default:
		e.log.Error().Str("kind", string(sp.Kind)).Msg("malformed step-or-parallel element")
		return pipeline.StatusFailed
	}
}

// runStep executes a step's commands sequentially via C1, stopping at the
// first nonzero exit. A step with zero commands succeeds immediately.
// Status transitions and the snapshots that record them are serialized
// through r.mu so a step running concurrently inside a Parallel group
// never has its own transition overwritten mid-encode by a sibling.
func (e *Engine) runStep(r *run, p *pipeline.Pipeline, s *pipeline.Step) pipeline.Status {
	r.mu.Lock()
	s.SetStatus(pipeline.StatusRunning)
	e.snapshot(p)
	r.mu.Unlock()

	for _, cmd := range s.Commands {
		out, err := e.runCommand(r, cmd)
		if err != nil {
			e.log.Error().Err(err).Str("step", s.Name).Str("command", cmd.Stdin).Msg("spawn failed")
			r.mu.Lock()
			cmd.Output = &pipeline.Output{ExitCode: 1}
			s.SetStatus(pipeline.StatusFailed)
			r.mu.Unlock()
			return pipeline.StatusFailed
		}
		r.mu.Lock()
		cmd.Output = out
		r.mu.Unlock()
		if !out.Succeeded() {
			r.mu.Lock()
			s.SetStatus(pipeline.StatusFailed)
			r.mu.Unlock()
			return pipeline.StatusFailed
		}
	}

	r.mu.Lock()
	s.SetStatus(pipeline.StatusSucceeded)
	r.mu.Unlock()
	return pipeline.StatusSucceeded
}

func (e *Engine) runCommand(r *run, cmd *pipeline.Command) (*pipeline.Output, error) {
	c := procexec.New(r.shell, cmd.Stdin)

	var res procexec.Result
	var err error
	switch r.mode {
	case procexec.ModeFile:
		res, err = c.RunFile(r.ctx, r.outDir, r.runID)
	case procexec.ModeDetached:
		res, err = c.RunDetached(r.ctx)
	default:
		res, err = c.RunPiped(r.ctx)
	}
	if err != nil {
		return nil, err
	}
	return &pipeline.Output{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: res.Duration,
	}, nil
}

// runParallel launches every child step concurrently via errgroup and
// waits for all to complete; the group fails iff some non-non_blocking
// child failed. Each child carries its own on_success/on_failure/
// on_abortion cascade (declared on *pipeline.Step), which runs as soon as
// that child terminates rather than waiting on its siblings.
func (e *Engine) runParallel(r *run, p *pipeline.Pipeline, pp *pipeline.Parallel) pipeline.Status {
	pp.Status = pipeline.StatusRunning
	e.snapshot(p)

	statuses := make([]pipeline.Status, len(pp.Steps))
	var g errgroup.Group
	for i, step := range pp.Steps {
		i, step := i, step
		g.Go(func() error {
			statuses[i] = e.runStep(r, p, step)
			wrapped := pipeline.StepOrParallel{Kind: pipeline.KindStep, Step: step}
			e.runCascadeList(r, p, wrapped.Cascades(statuses[i]))
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for i, st := range statuses {
		if st == pipeline.StatusFailed && !pp.Steps[i].NonBlocking {
			failed = true
		}
	}
	if failed {
		pp.Status = pipeline.StatusFailed
	} else {
		pp.Status = pipeline.StatusSucceeded
	}
	return pp.Status
}

// runCascadeList executes an ordered cascade of step-or-parallel elements
// sequentially; outcomes are recorded for observability only and never
// feed back into the caller's terminal status.
func (e *Engine) runCascadeList(r *run, p *pipeline.Pipeline, cascade []pipeline.StepOrParallel) {
	for i := range cascade {
		e.runNode(r, p, &cascade[i])
	}
}

func (e *Engine) snapshot(p *pipeline.Pipeline) {
	if err := e.store.Write(p); err != nil {
		e.log.Error().Err(err).Str("pipeline", p.Name).Str("run", p.ID).Msg("failed to snapshot pipeline")
	}
}

// Stop aborts the latest running instance of the named pipeline: it loads
// the latest log, confirms the recorded pid still belongs to this runner,
// signals it to terminate, and writes the Aborted status.
func (e *Engine) Stop(name string) error {
	p, err := e.store.GetByName(name)
	if err != nil {
		return fmt.Errorf("runner: stop %q: %w", name, err)
	}
	if p.Event == nil || p.Event.Pid == nil {
		return fmt.Errorf("runner: stop %q: no recorded pid", name)
	}
	pid := *p.Event.Pid
	if !liveness.IsPipelight(pid) {
		return fmt.Errorf("runner: stop %q: pid %d is not a pipelight process, refusing to signal", name, pid)
	}

	if err := terminate(pid); err != nil {
		return fmt.Errorf("runner: stop %q: signal pid %d: %w", name, pid, err)
	}

	p.Status = pipeline.StatusAborted
	return e.store.Write(p)
}
