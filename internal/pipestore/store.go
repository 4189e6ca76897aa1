// Package pipestore implements the log store (C3) and the log-backed half
// of the query surface (C8): append-only per-run JSON snapshots under a
// well-known directory, enumerated and reconciled against the liveness
// oracle on every load.
package pipestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/kodelint/pipelight/internal/liveness"
	"github.com/kodelint/pipelight/internal/pipeline"
)

// Store is a directory of one JSON file per pipeline run.
type Store struct {
	log zerolog.Logger
	dir string
}

// New returns a Store rooted at dir (typically
// <project-root>/.pipelight/logs).
func New(log zerolog.Logger, dir string) *Store {
	return &Store{log: log.With().Str("component", "pipestore").Logger(), dir: dir}
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Write serializes p whole and replaces its log file - the file always
// holds the latest known state of that run, never a history.
func (s *Store) Write(p *pipeline.Pipeline) error {
	if p.ID == "" {
		return fmt.Errorf("pipestore: cannot write pipeline %q with empty run id", p.Name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("pipestore: create log dir %q: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("pipestore: marshal pipeline %s: %w", p.ID, err)
	}

	final := filepath.Join(s.dir, p.ID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("pipestore: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("pipestore: rename %q to %q: %w", tmp, final, err)
	}
	return nil
}

// Load enumerates every log file, parses it as a pipeline snapshot,
// reconciles Running status against the liveness oracle, and returns the
// result sorted ascending by event date (ties broken by run id).
func (s *Store) Load() ([]*pipeline.Pipeline, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pipestore: read dir %q: %w", s.dir, err)
	}

	var out []*pipeline.Pipeline
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("unreadable log file, skipping")
			continue
		}
		var p pipeline.Pipeline
		if err := json.Unmarshal(data, &p); err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("unparseable log file, skipping")
			continue
		}
		Reconcile(&p)
		out = append(out, &p)
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := eventDate(out[i]), eventDate(out[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func eventDate(p *pipeline.Pipeline) time.Time {
	if p.Event == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, p.Event.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Reconcile applies the log-as-lockfile rule in place: if p's on-disk
// status is Running but the kernel disagrees (pid absent, or present
// under a different program identity), the effective status becomes
// Aborted.
func Reconcile(p *pipeline.Pipeline) {
	if p.Status != pipeline.StatusRunning {
		return
	}
	var pid *int
	if p.Event != nil {
		pid = p.Event.Pid
	}
	if !liveness.Running(pid) {
		p.Status = pipeline.StatusAborted
	}
}

// Remove truncates the log directory (backs `logs rm`).
func (s *Store) Remove() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pipestore: read dir %q: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("pipestore: remove %q: %w", e.Name(), err)
		}
	}
	return nil
}

// RemoveByName deletes every logged run named name, leaving other
// pipelines' logs untouched.
func (s *Store) RemoveByName(name string) error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pipestore: read dir %q: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var p pipeline.Pipeline
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		if p.Name == name {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("pipestore: remove %q: %w", path, err)
			}
		}
	}
	return nil
}

// Get returns all pipelines, ascending by event date.
func (s *Store) Get() ([]*pipeline.Pipeline, error) {
	return s.Load()
}

// GetByName returns the latest pipeline (by event date) whose name
// equals name, or an error if none exist.
func (s *Store) GetByName(name string) (*pipeline.Pipeline, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}
	var latest *pipeline.Pipeline
	for _, p := range all {
		if p.Name == name {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("pipestore: no logged run named %q", name)
	}
	return latest, nil
}

// GetManyByName returns every logged run named name, ascending by event
// date.
func (s *Store) GetManyByName(name string) ([]*pipeline.Pipeline, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []*pipeline.Pipeline
	for _, p := range all {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetBySid returns every logged run whose event.sid equals sid.
func (s *Store) GetBySid(sid string) ([]*pipeline.Pipeline, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []*pipeline.Pipeline
	for _, p := range all {
		if p.Event != nil && p.Event.Sid != nil && *p.Event.Sid == sid {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsRunning reports whether p is, after reconciliation, actually running.
func IsRunning(p *pipeline.Pipeline) bool {
	return p.Status == pipeline.StatusRunning
}

// IsAborted reports whether p's effective (reconciled) status is Aborted.
func IsAborted(p *pipeline.Pipeline) bool {
	return p.Status == pipeline.StatusAborted
}

// HasHomologousAlreadyRunning reports whether any pipeline in logs,
// other than skip, shares name and is (after reconciliation) running.
func HasHomologousAlreadyRunning(name string, skip *pipeline.Pipeline, logs []*pipeline.Pipeline) bool {
	for _, p := range logs {
		if p == skip {
			continue
		}
		if p.Name == name && IsRunning(p) {
			return true
		}
	}
	return false
}
