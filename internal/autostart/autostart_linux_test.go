//go:build linux

package autostart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnableDisableXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if IsEnabled() {
		t.Fatal("Expected autostart disabled in a fresh config dir")
	}
	if err := Sync(true); err != nil {
		t.Fatalf("Sync(true) failed: %v", err)
	}
	if !IsEnabled() {
		t.Error("Expected autostart enabled")
	}
	if _, err := os.Stat(filepath.Join(dir, "autostart", "mousefx.desktop")); err != nil {
		t.Errorf("Expected desktop entry on disk: %v", err)
	}

	if err := Sync(false); err != nil {
		t.Fatalf("Sync(false) failed: %v", err)
	}
	if IsEnabled() {
		t.Error("Expected autostart disabled")
	}
	// Removing twice is fine
	if err := Disable(); err != nil {
		t.Errorf("Expected second Disable to succeed, got %v", err)
	}
}
