//go:build darwin

package autostart

import (
	"os"
	"path/filepath"
)

func plistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), nil
}

// Enable installs a LaunchAgent for the running executable
func Enable() error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	return writeEntry(path, launchAgentPlist)
}

// Disable removes the LaunchAgent
func Disable() error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	return removeEntry(path)
}

// IsEnabled reports whether the LaunchAgent exists
func IsEnabled() bool {
	path, err := plistPath()
	return err == nil && exists(path)
}
