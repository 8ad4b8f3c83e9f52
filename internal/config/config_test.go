package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
}

func TestChangesSceneInvalidatesAll(t *testing.T) {
	prev := DefaultSettings()
	prev.Scene, prev.Source = "Main", "Cam"

	next := prev
	next.Source = "Logo"
	if got := Changes(prev, next); got != InvalidateAll {
		t.Errorf("Expected InvalidateAll on source change, got %b", got)
	}

	next = prev
	next.Scene = "Other"
	if got := Changes(prev, next); got != InvalidateAll {
		t.Errorf("Expected InvalidateAll on scene change, got %b", got)
	}
}

func TestChangesPerAxis(t *testing.T) {
	prev := DefaultSettings()

	next := prev
	next.Position.StartMode = StartCustom
	if got := Changes(prev, next); got != InvalidatePosition {
		t.Errorf("Expected InvalidatePosition, got %b", got)
	}

	next = prev
	next.Scale.CustomY = 2
	if got := Changes(prev, next); got != InvalidateScale {
		t.Errorf("Expected InvalidateScale, got %b", got)
	}

	next = prev
	next.Position.CustomX = 5
	next.Scale.StartMode = StartCustom
	got := Changes(prev, next)
	if !got.Has(InvalidatePosition | InvalidateScale) || got.Has(InvalidateRotation) {
		t.Errorf("Expected position and scale only, got %b", got)
	}
}

func TestChangesToggleKeepsState(t *testing.T) {
	prev := DefaultSettings()
	next := prev
	next.Position.Enabled = !prev.Position.Enabled
	next.Scale.Enabled = !prev.Scale.Enabled
	next.Wiggle.Enabled = !prev.Wiggle.Enabled
	next.Position.Smoothing = 0.9
	next.IntervalMs = 33
	if got := Changes(prev, next); got != InvalidateNone {
		t.Errorf("Expected no invalidation on toggles, got %b", got)
	}
}

func TestNormalize(t *testing.T) {
	s := Settings{
		IntervalMs: 0,
		Position:   PositionSettings{Smoothing: 3, StartMode: "bogus"},
		Scale:      ScaleSettings{Smoothing: -1, StartMode: StartCustom},
		Wiggle:     WiggleSettings{Strategy: "fast", Shape: ShapeNoise, MaxCycleSpeed: -2},
		CPU:        CPUSettings{MinIntervalMs: -5, MoveThresholdPx: -1, InactivityTimeoutMs: -1},
	}
	s.Normalize()

	if s.IntervalMs != 1 {
		t.Errorf("Expected interval 1, got %d", s.IntervalMs)
	}
	if s.Position.Smoothing != 1 || s.Scale.Smoothing != 0 {
		t.Errorf("Expected smoothing clamped to [0,1], got %v and %v", s.Position.Smoothing, s.Scale.Smoothing)
	}
	if s.Position.StartMode != StartCurrent || s.Scale.StartMode != StartCustom {
		t.Errorf("Unexpected start modes: %q, %q", s.Position.StartMode, s.Scale.StartMode)
	}
	if s.Wiggle.Strategy != StrategyTable || s.Wiggle.Shape != ShapeNoise {
		t.Errorf("Unexpected wiggle enums: %q, %q", s.Wiggle.Strategy, s.Wiggle.Shape)
	}
	if s.Wiggle.MaxCycleSpeed != 0 || s.CPU.MinIntervalMs != 0 || s.CPU.MoveThresholdPx != 0 || s.CPU.InactivityTimeoutMs != 0 {
		t.Errorf("Expected negatives clamped to zero, got %+v / %+v", s.Wiggle, s.CPU)
	}
}

func TestManagerSaveLoad(t *testing.T) {
	m := newTestManager(t)
	m.UpdateMotion(func(s *Settings) {
		s.Scene = "Main"
		s.Source = "Webcam"
		s.Position.Enabled = true
	})
	if err := m.SavePreset("cam"); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewManagerAt(m.Path())
	called := false
	loaded.RegisterChangeCallback(func() { called = true })
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !called {
		t.Error("Expected change callback after Load")
	}

	cfg := loaded.Get()
	if cfg.Motion.Scene != "Main" || cfg.Motion.Source != "Webcam" || !cfg.Motion.Position.Enabled {
		t.Errorf("Unexpected motion after reload: %+v", cfg.Motion)
	}
	if _, ok := cfg.Presets["cam"]; !ok {
		t.Error("Expected preset 'cam' after reload")
	}
	if cfg.General.ActivePreset != "cam" {
		t.Errorf("Expected active preset 'cam', got %q", cfg.General.ActivePreset)
	}
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := newTestManager(t)
	if err := m.Load(); err != nil {
		t.Fatalf("Expected missing file to be ignored, got %v", err)
	}
	if got := m.Get().General.OBSAddress; got != "localhost:4455" {
		t.Errorf("Expected default OBS address, got %q", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := newTestManager(t)
	cfg := m.Get()
	cfg.Presets["leak"] = DefaultSettings()
	cfg.Motion.Scene = "changed"

	if len(m.PresetNames()) != 0 {
		t.Error("Expected presets map to be copied")
	}
	if m.Motion().Scene != "" {
		t.Error("Expected motion settings to be copied")
	}
}

func TestApplyPreset(t *testing.T) {
	m := newTestManager(t)
	m.UpdateMotion(func(s *Settings) { s.Wiggle.Enabled = true })
	if err := m.SavePreset("wiggly"); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}
	m.UpdateMotion(func(s *Settings) { s.Wiggle.Enabled = false })

	changes := 0
	m.RegisterChangeCallback(func() { changes++ })

	if err := m.ApplyPreset("wiggly"); err != nil {
		t.Fatalf("ApplyPreset failed: %v", err)
	}
	if !m.Motion().Wiggle.Enabled {
		t.Error("Expected preset to re-enable wiggle")
	}
	if changes != 1 {
		t.Errorf("Expected 1 change notification, got %d", changes)
	}

	err := m.ApplyPreset("missing")
	if !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Expected ErrPresetNotFound, got %v", err)
	}
	if changes != 1 {
		t.Errorf("Expected no notification for a missing preset, got %d", changes)
	}
}

func TestSavePresetRejectsEmptyName(t *testing.T) {
	m := newTestManager(t)
	if err := m.SavePreset("  "); !errors.Is(err, ErrInvalidPresetName) {
		t.Errorf("Expected ErrInvalidPresetName, got %v", err)
	}
}

func TestDeletePreset(t *testing.T) {
	m := newTestManager(t)
	m.SavePreset("a")
	if err := m.DeletePreset("a"); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	if m.Get().General.ActivePreset != "" {
		t.Error("Expected active preset cleared")
	}
	if err := m.DeletePreset("a"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Expected ErrPresetNotFound, got %v", err)
	}
}

func TestExportImportPresets(t *testing.T) {
	src := newTestManager(t)
	src.UpdateMotion(func(s *Settings) { s.Scene = "A" })
	src.SavePreset("one")
	src.UpdateMotion(func(s *Settings) { s.Scene = "B" })
	src.SavePreset("two")

	path := filepath.Join(t.TempDir(), "presets.json")
	if err := src.ExportPresets(path); err != nil {
		t.Fatalf("ExportPresets failed: %v", err)
	}

	dst := newTestManager(t)
	n, err := dst.ImportPresets(path)
	if err != nil {
		t.Fatalf("ImportPresets failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 presets imported, got %d", n)
	}
	names := dst.PresetNames()
	if len(names) != 2 || names[0] != "one" || names[1] != "two" {
		t.Errorf("Unexpected preset names: %v", names)
	}
	if dst.Get().Presets["two"].Scene != "B" {
		t.Errorf("Expected preset 'two' scene B, got %q", dst.Get().Presets["two"].Scene)
	}
}

func TestImportMalformedLeavesPresetsUnchanged(t *testing.T) {
	m := newTestManager(t)
	m.SavePreset("keep")

	dir := t.TempDir()
	cases := map[string]string{
		"syntax":   `{"presets": {"x": {"scene": `,
		"unknown":  `{"presets": {"x": {"scene": "a", "colour": 1}}}`,
		"missing":  `{"other": {}}`,
		"type":     `{"presets": {"x": {"interval_ms": "fast"}}}`,
		"trailing": `{"presets": {"x": {"scene": "s"}}} this is not json`,
		"second":   `{"presets": {"x": {"scene": "s"}}} {"presets": {}}`,
		"interval": `{"presets": {"x": {"interval_ms": 0}}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := m.ImportPresets(path)
		if !errors.Is(err, ErrMalformedPresets) {
			t.Errorf("%s: expected ErrMalformedPresets, got %v", name, err)
		}
		names := m.PresetNames()
		if len(names) != 1 || names[0] != "keep" {
			t.Errorf("%s: expected presets unchanged, got %v", name, names)
		}
	}
}

func TestImportPartialPresetKeepsDefaults(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "partial.json")
	body := `{"presets": {"a": {"scene": "s", "position": {"enabled": true}}}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := m.ImportPresets(path); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if err := m.ApplyPreset("a"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	def := DefaultSettings()
	got := m.Motion()
	if got.Scene != "s" || !got.Position.Enabled {
		t.Errorf("Expected the preset's own fields, got scene %q enabled %v", got.Scene, got.Position.Enabled)
	}
	if got.IntervalMs != def.IntervalMs {
		t.Errorf("Expected interval_ms %d, got %d", def.IntervalMs, got.IntervalMs)
	}
	if got.Position.RangeX != def.Position.RangeX || got.Position.Smoothing != def.Position.Smoothing {
		t.Errorf("Expected default range and smoothing, got %v and %v", got.Position.RangeX, got.Position.Smoothing)
	}
}

func TestLoadPartialPresetKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"presets": {"a": {"scene": "s"}}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p, ok := m.Get().Presets["a"]
	if !ok {
		t.Fatal("Expected preset 'a' to be loaded")
	}
	if p.IntervalMs != DefaultSettings().IntervalMs {
		t.Errorf("Expected default interval_ms, got %d", p.IntervalMs)
	}
}

func TestImportMissingFile(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ImportPresets(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
