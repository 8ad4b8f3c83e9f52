// Package hotkey watches global key chords such as "Ctrl+Alt+P" by polling
// the keyboard state.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is how often the keyboard state is sampled
const DefaultPollInterval = 30 * time.Millisecond

var (
	// ErrUnknownKey is returned for chords naming a key that cannot be watched
	ErrUnknownKey = errors.New("unknown key")

	// ErrUnsupported is returned by Start when the platform exposes no key state
	ErrUnsupported = errors.New("global key state not supported on this platform")
)

// KeyState reports whether a key, by canonical name, is held down
type KeyState interface {
	KeyDown(name string) bool
}

// Manager handles hotkey registration and matching
type Manager struct {
	mu           sync.Mutex
	state        KeyState
	poll         time.Duration
	hotkeys      []*registeredHotkey
	currentState map[string]bool // canonical name -> held
}

type registeredHotkey struct {
	parts    []string // e.g. ["CTRL", "ALT", "P"]
	original string
	callback func()
	active   bool
}

// NewManager creates a manager reading the platform keyboard state
func NewManager() *Manager {
	return NewManagerWith(platformKeyState(), DefaultPollInterval)
}

// NewManagerWith creates a manager reading state every poll interval.
// A nil state leaves the manager driven by UpdateState only.
func NewManagerWith(state KeyState, poll time.Duration) *Manager {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Manager{
		state:        state,
		poll:         poll,
		currentState: make(map[string]bool),
	}
}

var aliases = map[string]string{
	"CONTROL": "CTRL",
	"OPTION":  "ALT",
	"WIN":     "CMD",
	"SUPER":   "CMD",
	"META":    "CMD",
	"COMMAND": "CMD",
	"RETURN":  "ENTER",
	"ESCAPE":  "ESC",
	"DEL":     "DELETE",
	"PGUP":    "PAGEUP",
	"PGDN":    "PAGEDOWN",
}

// Parse splits a chord into canonical key names
func Parse(chord string) ([]string, error) {
	raw := strings.Split(strings.ToUpper(chord), "+")
	parts := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if alias, ok := aliases[p]; ok {
			p = alias
		}
		if !knownKey(p) {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownKey, p, chord)
		}
		if !seen[p] {
			seen[p] = true
			parts = append(parts, p)
		}
	}
	return parts, nil
}

func knownKey(name string) bool {
	if len(name) == 1 {
		c := name[0]
		return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	if len(name) >= 2 && name[0] == 'F' {
		var n int
		if _, err := fmt.Sscanf(name[1:], "%d", &n); err == nil && fmt.Sprintf("F%d", n) == name {
			return n >= 1 && n <= 12
		}
	}
	_, ok := namedKeys[name]
	return ok
}

// namedKeys lists the non-alphanumeric keys every platform maps
var namedKeys = map[string]struct{}{
	"CTRL": {}, "ALT": {}, "SHIFT": {}, "CMD": {},
	"SPACE": {}, "ENTER": {}, "ESC": {}, "BACKSPACE": {}, "TAB": {},
	"PAGEUP": {}, "PAGEDOWN": {}, "HOME": {}, "END": {},
	"LEFT": {}, "UP": {}, "RIGHT": {}, "DOWN": {},
	"INSERT": {}, "DELETE": {},
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+1") and a callback.
// The callback fires once each time the chord becomes fully held.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if strings.TrimSpace(hotkeyStr) == "" {
		return -1, nil
	}
	parts, err := Parse(hotkeyStr)
	if err != nil {
		return -1, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})
	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState records a key transition and fires chords that just matched
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	key = strings.ToUpper(key)
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	fired := m.checkMatches()
	m.mu.Unlock()

	for _, hk := range fired {
		log.Printf("Hotkey triggered: %s", hk.original)
		go hk.callback()
	}
}

// checkMatches must be called with m.mu held
func (m *Manager) checkMatches() []*registeredHotkey {
	var fired []*registeredHotkey
	for _, hk := range m.hotkeys {
		match := true
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}
		if match && !hk.active && hk.callback != nil {
			fired = append(fired, hk)
		}
		hk.active = match
	}
	return fired
}

// watchedKeys returns every key named by a registered chord
func (m *Manager) watchedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var keys []string
	for _, hk := range m.hotkeys {
		for _, p := range hk.parts {
			if !seen[p] {
				seen[p] = true
				keys = append(keys, p)
			}
		}
	}
	return keys
}

// Start polls the keyboard state until ctx is done
func (m *Manager) Start(ctx context.Context) error {
	if m.state == nil {
		log.Println("Hotkey Engine: Global key state not supported on this platform.")
		return ErrUnsupported
	}

	go func() {
		ticker := time.NewTicker(m.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, k := range m.watchedKeys() {
					m.UpdateState(k, m.state.KeyDown(k))
				}
			}
		}
	}()

	log.Printf("Hotkey Engine: Polling key state every %v", m.poll)
	return nil
}
