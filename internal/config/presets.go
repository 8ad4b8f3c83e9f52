package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// presetFile is the on-disk layout of an exported preset collection
type presetFile struct {
	Presets map[string]Settings `json:"presets"`
}

// rawPresetFile defers decoding of each preset so fields it leaves out
// keep their defaults
type rawPresetFile struct {
	Presets map[string]json.RawMessage `json:"presets"`
}

// decodeSettings decodes data over DefaultSettings. With strict set,
// unknown fields and trailing data are errors.
func decodeSettings(data []byte, strict bool) (Settings, error) {
	s := DefaultSettings()
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}
	if strict {
		if err := expectEOF(dec); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// SavePreset stores a snapshot of the active motion settings under name
func (m *Manager) SavePreset(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidPresetName
	}

	m.mu.Lock()
	m.config.Presets[name] = m.config.Motion
	m.config.General.ActivePreset = name
	m.mu.Unlock()

	log.Printf("Config: Saved preset '%s'", name)
	return nil
}

// ApplyPreset replaces the active motion settings with the named preset
func (m *Manager) ApplyPreset(name string) error {
	m.mu.Lock()
	preset, ok := m.config.Presets[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	preset.Normalize()
	m.config.Motion = preset
	m.config.General.ActivePreset = name
	onChanged := m.onChanged
	m.mu.Unlock()

	log.Printf("Config: Applied preset '%s'", name)
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// DeletePreset removes the named preset
func (m *Manager) DeletePreset(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.config.Presets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	delete(m.config.Presets, name)
	if m.config.General.ActivePreset == name {
		m.config.General.ActivePreset = ""
	}
	return nil
}

// ExportPresets writes every preset to a human-readable JSON file
func (m *Manager) ExportPresets(path string) error {
	m.mu.Lock()
	file := presetFile{Presets: make(map[string]Settings, len(m.config.Presets))}
	for name, s := range m.config.Presets {
		file.Presets[name] = s
	}
	m.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}

	log.Printf("Config: Exported %d preset(s) to %s", len(file.Presets), path)
	return nil
}

// ImportPresets merges presets from a file written by ExportPresets.
// The whole file is parsed first: on any error the stored presets are
// left untouched.
func (m *Manager) ImportPresets(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read presets: %w", err)
	}

	presets, err := parsePresets(data)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	for name, s := range presets {
		m.config.Presets[name] = s
	}
	m.mu.Unlock()

	log.Printf("Config: Imported %d preset(s) from %s", len(presets), path)
	return len(presets), nil
}

func parsePresets(data []byte) (map[string]Settings, error) {
	var file rawPresetFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPresets, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPresets, err)
	}
	if file.Presets == nil {
		return nil, fmt.Errorf("%w: missing \"presets\" object", ErrMalformedPresets)
	}

	out := make(map[string]Settings, len(file.Presets))
	for name, raw := range file.Presets {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty preset name", ErrMalformedPresets)
		}
		s, err := decodeSettings(raw, true)
		if err != nil {
			return nil, fmt.Errorf("%w: preset '%s': %v", ErrMalformedPresets, name, err)
		}
		if s.IntervalMs <= 0 {
			return nil, fmt.Errorf("%w: preset '%s': interval_ms must be positive", ErrMalformedPresets, name)
		}
		s.Normalize()
		out[name] = s
	}
	return out, nil
}
