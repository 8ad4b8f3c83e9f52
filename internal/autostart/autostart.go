// Package autostart registers mousefx to launch at login.
package autostart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// ErrUnsupported is returned on platforms without a login item mechanism
var ErrUnsupported = errors.New("autostart not supported on this platform")

const label = "com.mousefx.agent"

var launchAgentPlist = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`))

var desktopEntry = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Type=Application
Name=mousefx
Comment=Mouse driven motion for OBS scene items
Exec="{{.ExecutablePath}}"
X-GNOME-Autostart-enabled=true
NoDisplay=true
`))

type entry struct {
	Label          string
	ExecutablePath string
}

func render(tmpl *template.Template, execPath string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, entry{Label: label, ExecutablePath: execPath}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func executable() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return execPath, nil
}

// writeEntry renders tmpl for the running executable into path
func writeEntry(path string, tmpl *template.Template) error {
	execPath, err := executable()
	if err != nil {
		return err
	}
	data, err := render(tmpl, execPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func removeEntry(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Sync enables or disables autostart to match want
func Sync(want bool) error {
	if want == IsEnabled() {
		return nil
	}
	if want {
		return Enable()
	}
	return Disable()
}
