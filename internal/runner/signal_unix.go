//go:build !windows
// +build !windows

package runner

import "syscall"

// terminate sends SIGTERM to pid, the cooperative signal `stop` uses to
// ask a running pipeline to abort.
func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
