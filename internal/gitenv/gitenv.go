// Package gitenv implements the environment probe (C7): the current git
// branch, the current hook-or-manual action derived from the invoking
// working directory, and "teleport" to the repository root. Grounded on
// the teacher's exec.Command("git", ...) idiom in internal/agent.
package gitenv

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kodelint/pipelight/internal/pipeline"
)

// Probe resolves the environment C7 needs at process start.
type Probe struct {
	log zerolog.Logger
}

// New returns a Probe.
func New(log zerolog.Logger) *Probe {
	return &Probe{log: log.With().Str("component", "gitenv").Logger()}
}

// Teleport changes the process's working directory to the git repository
// root discoverable from the current working directory, if any, and
// returns that root. If no repository is discoverable, it returns the
// unchanged current directory and a nil error (an environment error per
// §7, reported but non-fatal).
func (p *Probe) Teleport() (string, error) {
	root, err := p.gitTopLevel()
	if err != nil {
		p.log.Warn().Err(err).Msg("no git repository discoverable, staying in place")
		return os.Getwd()
	}
	if err := os.Chdir(root); err != nil {
		return "", fmt.Errorf("gitenv: chdir to repo root %q: %w", root, err)
	}
	return root, nil
}

func (p *Probe) gitTopLevel() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("gitenv: git rev-parse --show-toplevel: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the short name of HEAD.
func (p *Probe) CurrentBranch() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("gitenv: git rev-parse --abbrev-ref HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentAction derives Hook(name) from cwd iff cwd contains the segment
// "/.git/hooks/<name>"; otherwise Special(Manual). Special(Watch) is set
// externally by the watcher when it invokes the engine, never here.
func CurrentAction(cwd string) pipeline.Action {
	const marker = "/.git/hooks/"
	idx := strings.Index(cwd, marker)
	if idx < 0 {
		return pipeline.ManualAction()
	}
	rest := cwd[idx+len(marker):]
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return pipeline.ManualAction()
	}
	name := rest
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		name = rest[:slash]
	}
	return pipeline.HookAction(name)
}
