//go:build windows
// +build windows

package liveness

import (
	"os"
	"strings"
	"syscall"
	"unsafe"
)

const (
	processQueryLimitedInformation = 0x1000
	stillActive                    = 259
)

// isAlive asks the Windows process table for a limited-information handle
// and the process's exit code; STILL_ACTIVE means the pid is live.
func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := syscall.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer syscall.CloseHandle(h)

	var exitCode uint32
	if err := syscall.GetExitCodeProcess(h, &exitCode); err != nil {
		return false
	}
	return exitCode == stillActive
}

// isPipelight reads back the full image path of pid via
// QueryFullProcessImageName and compares it against the current
// executable, guarding against pid reuse the same way the Unix /proc/exe
// check does.
func isPipelight(pid int) bool {
	self, err := os.Executable()
	if err != nil {
		return false
	}

	h, err := syscall.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer syscall.CloseHandle(h)

	buf := make([]uint16, syscall.MAX_PATH)
	size := uint32(len(buf))
	if err := queryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return false
	}
	target := syscall.UTF16ToString(buf[:size])

	return strings.EqualFold(self, target)
}

// queryFullProcessImageName wraps the kernel32 call not exposed by
// package syscall on all toolchains.
func queryFullProcessImageName(handle syscall.Handle, flags uint32, buf *uint16, size *uint32) error {
	mod := syscall.NewLazyDLL("kernel32.dll")
	proc := mod.NewProc("QueryFullProcessImageNameW")
	r, _, err := proc.Call(
		uintptr(handle),
		uintptr(flags),
		uintptr(unsafe.Pointer(buf)),
		uintptr(unsafe.Pointer(size)),
	)
	if r == 0 {
		return err
	}
	return nil
}
