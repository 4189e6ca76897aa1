//go:build windows
// +build windows

package runner

import "os"

// terminate asks pid to exit. Windows has no SIGTERM equivalent exposed
// through package os; os.Process.Kill is the nearest cooperative signal
// available without CGO.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
