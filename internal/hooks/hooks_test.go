package hooks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallWritesDriverAndDDir(t *testing.T) {
	gitDir := t.TempDir()
	if err := Install(gitDir, []string{"pre-commit"}); err != nil {
		t.Fatal(err)
	}

	driver := filepath.Join(gitDir, "hooks", "pre-commit")
	info, err := os.Stat(driver)
	if err != nil {
		t.Fatalf("expected driver script: %v", err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Fatalf("expected driver to be executable, mode=%v", info.Mode())
	}

	dDir := filepath.Join(gitDir, "hooks", "pre-commit.d")
	if fi, err := os.Stat(dDir); err != nil || !fi.IsDir() {
		t.Fatalf("expected %s to be a directory: %v", dDir, err)
	}

	copyPath := filepath.Join(dDir, "pre-commit")
	copyInfo, err := os.Stat(copyPath)
	if err != nil {
		t.Fatalf("expected driver copy inside .d dir: %v", err)
	}
	if copyInfo.Mode().Perm()&0111 == 0 {
		t.Fatalf("expected driver copy to be executable, mode=%v", copyInfo.Mode())
	}

	if !Installed(gitDir, "pre-commit") {
		t.Fatal("expected Installed to report true")
	}
}

func TestUninstallRemovesDriverAndDDir(t *testing.T) {
	gitDir := t.TempDir()
	if err := Install(gitDir, []string{"post-commit"}); err != nil {
		t.Fatal(err)
	}
	if err := Uninstall(gitDir, []string{"post-commit"}); err != nil {
		t.Fatal(err)
	}
	if Installed(gitDir, "post-commit") {
		t.Fatal("expected Installed to report false after uninstall")
	}
	dDir := filepath.Join(gitDir, "hooks", "post-commit.d")
	if _, err := os.Stat(dDir); !os.IsNotExist(err) {
		t.Fatalf("expected .d directory removed, err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dDir, "post-commit")); !os.IsNotExist(err) {
		t.Fatalf("expected driver copy inside .d dir to be removed, err=%v", err)
	}
}

func TestUninstallMissingHookIsNotAnError(t *testing.T) {
	gitDir := t.TempDir()
	if err := Uninstall(gitDir, []string{"pre-push"}); err != nil {
		t.Fatalf("expected no error removing a hook that was never installed: %v", err)
	}
}
