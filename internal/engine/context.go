// Package engine holds the explicit, once-constructed context threaded
// through every component, replacing the unsafe process-wide singletons
// (shell path, output directory, config, portal) the design notes flag
// for re-architecture.
package engine

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kodelint/pipelight/internal/registry"
)

// Context is built once per command invocation by the factory in
// cli.Root and passed by pointer to every constructor (runner.New(ctx), pipestore.New(ctx.Log, ctx.LogsDir), ...).
// Publication to readers happens-after construction: nothing mutates a
// Context after New returns it.
type Context struct {
	// Shell is the process-wide configured shell path used by C1.
	Shell string
	// ProjectRoot is the git repository root ("portal") C7 teleports to.
	ProjectRoot string
	// OutDir is the fixed process-wide path for file-backed I/O (C1).
	OutDir string
	// LogsDir is <ProjectRoot>/.pipelight/logs (C3).
	LogsDir string
	// Config is the loaded declared-pipelines configuration (C8).
	Config *registry.Config
	// Log is the root structured logger; components derive sub-loggers
	// via Log.With().Str("component", ...).Logger().
	Log zerolog.Logger
}

const (
	pipelightDir = ".pipelight"
	logsSubdir   = "logs"
	outSubdir    = "out"
)

// New constructs the engine context for projectRoot, resolving the
// conventional .pipelight/logs and .pipelight/out directories.
func New(log zerolog.Logger, shell, projectRoot string, cfg *registry.Config) *Context {
	base := filepath.Join(projectRoot, pipelightDir)
	return &Context{
		Shell:       shell,
		ProjectRoot: projectRoot,
		OutDir:      filepath.Join(base, outSubdir),
		LogsDir:     filepath.Join(base, logsSubdir),
		Config:      cfg,
		Log:         log,
	}
}
