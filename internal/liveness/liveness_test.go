package liveness

import (
	"os"
	"testing"
)

func TestIsAliveCurrentProcess(t *testing.T) {
	if !IsAlive(os.Getpid()) {
		t.Fatal("the current process must be reported alive")
	}
}

func TestIsAliveUnusedPid(t *testing.T) {
	// PID 1 always exists, but very large pids are vanishingly unlikely
	// to be assigned - this isn't airtight, but neither is any liveness
	// probe run against a live kernel.
	const improbablePid = 1 << 30
	if IsAlive(improbablePid) {
		t.Skip("improbable pid happened to be alive on this kernel")
	}
}

func TestIsPipelightCurrentProcess(t *testing.T) {
	if !IsPipelight(os.Getpid()) {
		t.Fatal("the current process must match its own program image")
	}
}

func TestRunningNilPid(t *testing.T) {
	if Running(nil) {
		t.Fatal("a nil pid can never be considered running")
	}
}
