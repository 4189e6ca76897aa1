package procexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func shell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}

func TestRunPipedCapturesStdout(t *testing.T) {
	cmd := New(shell(), "echo hi")
	res, err := cmd.RunPiped(context.Background())
	if err != nil {
		t.Fatalf("RunPiped: %v", err)
	}
	if !res.Succeeded() {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	if got := res.Stdout; got != "hi\n" {
		t.Fatalf("stdout = %q, want %q", got, "hi\n")
	}
}

func TestRunPipedNonzeroExitIsNotError(t *testing.T) {
	cmd := New(shell(), "exit 1")
	res, err := cmd.RunPiped(context.Background())
	if err != nil {
		t.Fatalf("nonzero exit must not be a Go error: %v", err)
	}
	if res.Succeeded() {
		t.Fatalf("expected failure, got success")
	}
	if res.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestRunPipedSpawnErrorOnMissingShell(t *testing.T) {
	cmd := New("/nonexistent/shell-binary", "echo hi")
	_, err := cmd.RunPiped(context.Background())
	if err == nil {
		t.Fatal("expected spawn error")
	}
	var spawnErr *SpawnError
	if !asSpawnError(err, &spawnErr) {
		t.Fatalf("expected *SpawnError, got %T: %v", err, err)
	}
}

func asSpawnError(err error, target **SpawnError) bool {
	if se, ok := err.(*SpawnError); ok {
		*target = se
		return true
	}
	return false
}

func TestRunFileCapturesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	cmd := New(shell(), "echo file-mode")
	res, err := cmd.RunFile(context.Background(), dir, "run-1")
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if res.Stdout != "file-mode\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "run-1_stdout")); !os.IsNotExist(err) {
		t.Fatalf("expected stdout file to be unlinked, stat err = %v", err)
	}
}

func TestRunDetachedReturnsImmediately(t *testing.T) {
	cmd := New(shell(), "sleep 1")
	start := time.Now()
	res, err := cmd.RunDetached(context.Background())
	if err != nil {
		t.Fatalf("RunDetached: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("RunDetached blocked for %v, expected near-instant return", elapsed)
	}
	if !res.Detached || !res.Succeeded() {
		t.Fatalf("expected detached success result, got %+v", res)
	}
}
