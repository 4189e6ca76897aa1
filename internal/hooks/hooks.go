// Package hooks installs the git-hook driver scripts described in the
// external interfaces: one POSIX shell driver per well-known hook name
// under .git/hooks/, plus a <name>.d/ directory whose executable scripts
// the driver runs so other tools can coexist with pipelight on the same
// hook.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
)

// WellKnown lists the git hook names pipelight installs a driver for.
var WellKnown = []string{
	"pre-commit",
	"post-commit",
	"pre-push",
	"post-checkout",
	"post-merge",
	"pre-rebase",
	"post-rewrite",
}

const driverTemplate = `#!/bin/sh
# Installed by pipelight. Runs "pipelight trigger" for this hook, then any
# additional scripts dropped into %s.d/.
set -e

pipelight trigger --flag %s

hookdir="$(dirname "$0")/%s.d"
if [ -d "$hookdir" ]; then
  for script in "$hookdir"/*; do
    [ -x "$script" ] && "$script" "$@"
  done
fi
`

// Install writes the driver script and its companion .d directory for
// every name in names under <gitDir>/hooks.
func Install(gitDir string, names []string) error {
	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("hooks: create %s: %w", hooksDir, err)
	}

	for _, name := range names {
		if err := installOne(hooksDir, name); err != nil {
			return err
		}
	}
	return nil
}

func installOne(hooksDir, name string) error {
	driverPath := filepath.Join(hooksDir, name)
	contents := fmt.Sprintf(driverTemplate, name, name, name)
	if err := os.WriteFile(driverPath, []byte(contents), 0755); err != nil {
		return fmt.Errorf("hooks: write %s: %w", driverPath, err)
	}

	dDir := filepath.Join(hooksDir, name+".d")
	if err := os.MkdirAll(dDir, 0755); err != nil {
		return fmt.Errorf("hooks: create %s: %w", dDir, err)
	}

	// Drop a copy of the driver itself into name.d/ so a hook that chains
	// into another pipelight-managed repo (or is re-sourced directly)
	// still runs the trigger, not just third-party scripts.
	copyPath := filepath.Join(dDir, name)
	if err := os.WriteFile(copyPath, []byte(contents), 0755); err != nil {
		return fmt.Errorf("hooks: write %s: %w", copyPath, err)
	}
	return nil
}

// Uninstall removes the driver script and its .d directory for every name
// in names, leaving any other hook untouched.
func Uninstall(gitDir string, names []string) error {
	hooksDir := filepath.Join(gitDir, "hooks")
	for _, name := range names {
		if err := os.Remove(filepath.Join(hooksDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("hooks: remove %s: %w", name, err)
		}
		if err := os.RemoveAll(filepath.Join(hooksDir, name+".d")); err != nil {
			return fmt.Errorf("hooks: remove %s.d: %w", name, err)
		}
	}
	return nil
}

// Installed reports whether the driver script for name exists under
// <gitDir>/hooks.
func Installed(gitDir, name string) bool {
	_, err := os.Stat(filepath.Join(gitDir, "hooks", name))
	return err == nil
}
