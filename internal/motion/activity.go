package motion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"mousefx/internal/config"
	"mousefx/internal/input"
)

// SkipPolicy decides whether a tick's recompute can be skipped because the
// cursor has barely moved and an update happened recently.
type SkipPolicy struct {
	in input.Sampler

	minInterval time.Duration
	threshold   float64
	inactivity  time.Duration

	started    bool
	last       mgl64.Vec2
	lastUpdate time.Time
	lastMove   time.Time
	moved      bool
	idle       bool
}

// NewSkipPolicy creates a policy that samples the cursor from in
func NewSkipPolicy(cfg config.CPUSettings, in input.Sampler) *SkipPolicy {
	return &SkipPolicy{
		in:          in,
		minInterval: time.Duration(cfg.MinIntervalMs) * time.Millisecond,
		threshold:   cfg.MoveThresholdPx,
		inactivity:  time.Duration(cfg.InactivityTimeoutMs) * time.Millisecond,
	}
}

// ShouldSkip samples the cursor and reports whether the caller may skip
// this tick. The first call never skips.
func (p *SkipPolicy) ShouldSkip(now time.Time) bool {
	x, y := p.in.CursorPosition()
	pos := mgl64.Vec2{x, y}

	if !p.started {
		p.started = true
		p.last = pos
		p.lastUpdate = now
		p.lastMove = now
		p.moved = true
		return false
	}

	delta := pos.Sub(p.last)
	p.last = pos
	p.moved = math.Abs(delta.X()) >= p.threshold || math.Abs(delta.Y()) >= p.threshold

	if p.moved {
		p.lastMove = now
		p.idle = false
	} else if p.inactivity > 0 && now.Sub(p.lastMove) >= p.inactivity {
		p.idle = true
	}

	if p.idle {
		return true
	}
	if !p.moved && now.Sub(p.lastUpdate) < p.minInterval {
		return true
	}

	p.lastUpdate = now
	return false
}

// Moved reports whether the last sample moved by at least the threshold
func (p *SkipPolicy) Moved() bool {
	return p.moved
}

// Idle reports whether the inactivity lock is engaged
func (p *SkipPolicy) Idle() bool {
	return p.idle
}

// Reset forgets all history; the next call will not skip
func (p *SkipPolicy) Reset() {
	*p = SkipPolicy{
		in:          p.in,
		minInterval: p.minInterval,
		threshold:   p.threshold,
		inactivity:  p.inactivity,
	}
}
