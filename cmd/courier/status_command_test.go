package main

import (
	"path/filepath"
	"testing"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "stopped")
	requireContains(t, out, "== Agents ==")
	requireContains(t, out, "publish")
}

func TestStatusCommandDaemonAbsent(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, filepath.Join(t.TempDir(), "gone.sock"), env.configPath)
	if err != nil {
		t.Fatalf("status without daemon: %v", err)
	}
	requireContains(t, out, "not running")
}
