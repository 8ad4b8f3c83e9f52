// Package input provides cross-platform sampling of the global mouse cursor.
package input

import "sync"

// Defaults returned when the platform cannot be queried
const (
	DefaultScreenWidth  = 1920
	DefaultScreenHeight = 1080
)

// Sampler reports the global cursor and button state.
// Implementations never fail: when the platform cannot be queried they
// return zero position, the default screen size and released buttons.
type Sampler interface {
	CursorPosition() (x, y float64)
	ScreenSize() (w, h float64)
	LeftButtonPressed() bool
	RightButtonPressed() bool
}

// Snapshot is the sampler state at one instant
type Snapshot struct {
	X, Y        float64
	Width       float64
	Height      float64
	Left, Right bool
}

// snapshotter is implemented by samplers that read all state in one query
type snapshotter interface {
	Snapshot() Snapshot
}

// Take reads every value from s once
func Take(s Sampler) Snapshot {
	if sn, ok := s.(snapshotter); ok {
		return sn.Snapshot()
	}
	x, y := s.CursorPosition()
	w, h := s.ScreenSize()
	return Snapshot{
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		Left:   s.LeftButtonPressed(),
		Right:  s.RightButtonPressed(),
	}
}

func (s Snapshot) CursorPosition() (x, y float64) { return s.X, s.Y }
func (s Snapshot) ScreenSize() (w, h float64)     { return s.Width, s.Height }
func (s Snapshot) LeftButtonPressed() bool        { return s.Left }
func (s Snapshot) RightButtonPressed() bool       { return s.Right }

// Latch serves the state captured by the last Refresh, so every reader
// within one tick sees the same instant. It is not safe for concurrent use.
type Latch struct {
	Snapshot
	src Sampler
}

// NewLatch wraps src. Until the first Refresh it reports the inert defaults.
func NewLatch(src Sampler) *Latch {
	return &Latch{
		Snapshot: Take(Inert()),
		src:      src,
	}
}

// Refresh samples the wrapped sampler once
func (l *Latch) Refresh() {
	l.Snapshot = Take(l.src)
}

// Fixed is an in-memory Sampler whose state is set by the caller
type Fixed struct {
	mu    sync.RWMutex
	state Snapshot
}

// NewFixed creates a Fixed sampler with the default screen size
func NewFixed() *Fixed {
	return &Fixed{state: Snapshot{Width: DefaultScreenWidth, Height: DefaultScreenHeight}}
}

// Set replaces the whole state
func (f *Fixed) Set(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

// MoveTo sets the cursor position
func (f *Fixed) MoveTo(x, y float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.X, f.state.Y = x, y
}

// Press sets the button state
func (f *Fixed) Press(left, right bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Left, f.state.Right = left, right
}

// Resize sets the screen size
func (f *Fixed) Resize(w, h float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Width, f.state.Height = w, h
}

func (f *Fixed) CursorPosition() (x, y float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.X, f.state.Y
}

func (f *Fixed) ScreenSize() (w, h float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Width, f.state.Height
}

func (f *Fixed) LeftButtonPressed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Left
}

func (f *Fixed) RightButtonPressed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Right
}

// inert is the fallback used when a platform sampler cannot start
type inert struct{}

func (inert) CursorPosition() (x, y float64) { return 0, 0 }
func (inert) ScreenSize() (w, h float64)     { return DefaultScreenWidth, DefaultScreenHeight }
func (inert) LeftButtonPressed() bool        { return false }
func (inert) RightButtonPressed() bool       { return false }

// Inert returns a Sampler that always reports the safe defaults
func Inert() Sampler {
	return inert{}
}
