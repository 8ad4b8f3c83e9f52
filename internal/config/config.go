// Package config provides configuration management for mousefx.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// Config represents the application configuration
type Config struct {
	// Motion is the active motion configuration
	Motion Settings `json:"motion"`

	// Presets maps a preset name to a full motion snapshot
	Presets map[string]Settings `json:"presets"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// OBSAddress is the obs-websocket host:port (default: localhost:4455)
	OBSAddress string `json:"obs_address"`

	// OBSPassword is the obs-websocket server password, empty if auth is off
	OBSPassword string `json:"obs_password,omitempty"`

	// APIEnabled enables the HTTP control API
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the API server (default: 18181)
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`

	// ShowTray shows the system tray menu
	ShowTray bool `json:"show_tray"`

	// ActivePreset is the name of the last applied preset
	ActivePreset string `json:"active_preset,omitempty"`

	// PauseHotkey toggles pause from anywhere (e.g. "Ctrl+Alt+P"), empty to disable
	PauseHotkey string `json:"pause_hotkey,omitempty"`

	// PresetHotkeys maps a preset name to the hotkey that applies it
	PresetHotkeys map[string]string `json:"preset_hotkeys,omitempty"`

	// AutoStart launches mousefx at login
	AutoStart bool `json:"auto_start"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Motion:  DefaultSettings(),
		Presets: make(map[string]Settings),
		General: GeneralConfig{
			OBSAddress:  "localhost:4455",
			APIEnabled:  true,
			APIPort:     18181,
			ShowTray:    true,
			PauseHotkey: "Ctrl+Alt+P",
		},
	}
}

// clone returns a deep copy so callers never share the presets map
func (c *Config) clone() *Config {
	out := *c
	out.Presets = make(map[string]Settings, len(c.Presets))
	for name, s := range c.Presets {
		out.Presets[name] = s
	}
	if c.General.PresetHotkeys != nil {
		out.General.PresetHotkeys = make(map[string]string, len(c.General.PresetHotkeys))
		for name, hk := range c.General.PresetHotkeys {
			out.General.PresetHotkeys[name] = hk
		}
	}
	return &out
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager backed by the OS config dir
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager backed by the given file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "mousefx")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "mousefx")
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, "mousefx")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return err
	}

	// Preset entries decode over defaults, like Motion does
	var raw rawPresetFile
	if err := json.Unmarshal(data, &raw); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg.Presets = make(map[string]Settings, len(raw.Presets))
	for name, entry := range raw.Presets {
		s, err := decodeSettings(entry, false)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("preset '%s': %w", name, err)
		}
		s.Normalize()
		cfg.Presets[name] = s
	}
	cfg.Motion.Normalize()
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.clone()
}

// Set replaces the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config.clone()
	m.config.Motion.Normalize()
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
}

// Motion returns the active motion settings
func (m *Manager) Motion() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Motion
}

// UpdateMotion applies fn to the active motion settings and notifies listeners
func (m *Manager) UpdateMotion(fn func(*Settings)) {
	m.mu.Lock()
	fn(&m.config.Motion)
	m.config.Motion.Normalize()
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// PresetNames returns the stored preset names in sorted order
func (m *Manager) PresetNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedNames(m.config.Presets)
}

func sortedNames(presets map[string]Settings) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
