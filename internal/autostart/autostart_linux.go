//go:build linux

package autostart

import (
	"os"
	"path/filepath"
)

// desktopPath follows the XDG autostart layout
func desktopPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", "mousefx.desktop"), nil
}

// Enable writes an XDG autostart entry for the running executable
func Enable() error {
	path, err := desktopPath()
	if err != nil {
		return err
	}
	return writeEntry(path, desktopEntry)
}

// Disable removes the autostart entry
func Disable() error {
	path, err := desktopPath()
	if err != nil {
		return err
	}
	return removeEntry(path)
}

// IsEnabled reports whether the autostart entry exists
func IsEnabled() bool {
	path, err := desktopPath()
	return err == nil && exists(path)
}
