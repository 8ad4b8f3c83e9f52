package tray

import (
	"fmt"
	"log"

	"mousefx/internal/autostart"
	"mousefx/internal/config"
)

// Pauser is the part of the animator the menu controls
type Pauser interface {
	Paused() bool
	SetPaused(paused bool)
}

// NewMenu builds the tray menu: reaction toggles, pause, one entry per
// preset and quit. Preset entries reflect the presets present at startup.
func NewMenu(configMgr *config.Manager, anim Pauser, onQuit func()) *Tray {
	t := New("mousefx - mouse driven scene item motion")
	s := configMgr.Motion()

	var posID, scaleID, wiggleID int
	toggle := func(id *int, name string, flip func(*config.Settings) bool) func() {
		return func() {
			var on bool
			configMgr.UpdateMotion(func(s *config.Settings) { on = flip(s) })
			if err := configMgr.Save(); err != nil {
				log.Printf("Tray: Failed to save config: %v", err)
			}
			log.Printf("Tray: %s=%v", name, on)
			t.SetItemChecked(*id, on)
		}
	}

	posID = t.AddCheckbox("Follow Mouse", s.Position.Enabled, toggle(&posID, "Position", func(s *config.Settings) bool {
		s.Position.Enabled = !s.Position.Enabled
		return s.Position.Enabled
	}))
	scaleID = t.AddCheckbox("Scale On Click", s.Scale.Enabled, toggle(&scaleID, "Scale", func(s *config.Settings) bool {
		s.Scale.Enabled = !s.Scale.Enabled
		return s.Scale.Enabled
	}))
	wiggleID = t.AddCheckbox("Wiggle", s.Wiggle.Enabled, toggle(&wiggleID, "Wiggle", func(s *config.Settings) bool {
		s.Wiggle.Enabled = !s.Wiggle.Enabled
		return s.Wiggle.Enabled
	}))

	t.AddSeparator()

	var pauseID int
	pauseID = t.AddCheckbox("Pause", anim.Paused(), func() {
		paused := !anim.Paused()
		anim.SetPaused(paused)
		t.SetItemChecked(pauseID, paused)
	})

	names := configMgr.PresetNames()
	if len(names) > 0 {
		t.AddSeparator()
	}
	active := configMgr.Get().General.ActivePreset
	presetIDs := make(map[string]int, len(names))
	for _, name := range names {
		name := name // Capture for closure
		presetIDs[name] = t.AddCheckbox(fmt.Sprintf("Preset: %s", name), name == active, func() {
			if err := configMgr.ApplyPreset(name); err != nil {
				log.Printf("Tray: Apply preset error: %v", err)
				return
			}
			if err := configMgr.Save(); err != nil {
				log.Printf("Tray: Failed to save config: %v", err)
			}

			applied := configMgr.Motion()
			t.SetItemChecked(posID, applied.Position.Enabled)
			t.SetItemChecked(scaleID, applied.Scale.Enabled)
			t.SetItemChecked(wiggleID, applied.Wiggle.Enabled)
			for other, id := range presetIDs {
				t.SetItemChecked(id, other == name)
			}
		})
	}

	t.AddSeparator()

	var loginID int
	loginID = t.AddCheckbox("Start at Login", autostart.IsEnabled(), func() {
		want := !autostart.IsEnabled()
		if err := autostart.Sync(want); err != nil {
			log.Printf("Tray: Autostart error: %v", err)
			return
		}
		cfg := configMgr.Get()
		cfg.General.AutoStart = want
		configMgr.Set(cfg)
		if err := configMgr.Save(); err != nil {
			log.Printf("Tray: Failed to save config: %v", err)
		}
		t.SetItemChecked(loginID, want)
	})

	t.AddMenuItem("Quit", func() {
		if onQuit != nil {
			onQuit()
		}
		t.Stop()
	})

	return t
}
