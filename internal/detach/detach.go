// Package detach implements the detach supervisor (C6): the parent process
// re-execs itself with an --attach marker appended, gives the child null
// stdio (/dev/null for stdout and stderr), and returns to the caller
// immediately without waiting for the child. The child becomes
// the real pipeline runner and is free to outlive the parent's terminal.
package detach

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// AttachFlag is appended to a re-exec invocation to tell the child it is
// the detached worker and must not fork again.
const AttachFlag = "--attach"

// Supervisor re-execs the current binary into a detached child.
type Supervisor struct {
	log zerolog.Logger
}

// New creates a Supervisor.
func New(log zerolog.Logger) *Supervisor {
	return &Supervisor{log: log.With().Str("component", "detach").Logger()}
}

// ReExec starts a detached copy of the current process with args plus
// --attach, inheriting cwd and environment, and returns the child's pid
// without waiting for it to exit. The caller is expected to exit
// immediately afterward, handing the pipeline over to the child.
func (s *Supervisor) ReExec(args []string) (int, error) {
	self, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("detach: resolve self: %w", err)
	}

	childArgs := append(append([]string{}, args...), AttachFlag)
	cmd := exec.Command(self, childArgs...)
	cmd.Dir, _ = os.Getwd()
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("detach: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("detach: re-exec %s: %w", self, err)
	}

	// The child is now independent; Release lets it outlive this process
	// without becoming a zombie once the parent exits.
	if err := cmd.Process.Release(); err != nil {
		s.log.Warn().Err(err).Msg("failed to release detached child")
	}

	s.log.Info().Int("pid", cmd.Process.Pid).Strs("args", childArgs).Msg("re-exec'd into detached worker")
	return cmd.Process.Pid, nil
}

// IsAttached reports whether args carries the --attach marker a detached
// child was started with.
func IsAttached(args []string) bool {
	for _, a := range args {
		if a == AttachFlag {
			return true
		}
	}
	return false
}

// StripAttach returns args with every occurrence of --attach removed, for
// re-parsing the remaining command-line as the attached worker's own
// invocation.
func StripAttach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == AttachFlag {
			continue
		}
		out = append(out, a)
	}
	return out
}
