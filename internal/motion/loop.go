package motion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"

	"mousefx/internal/config"
	"mousefx/internal/input"
	"mousefx/internal/smooth"
	"mousefx/internal/wave"
)

// Noise rows keep each channel on an uncorrelated slice of the 2D field
const (
	noiseRowPositionX = 0
	noiseRowPositionY = 17
	noiseRowRotation  = 34
	noiseRowScale     = 51
	noiseRowCosine    = 8.5
)

// baseline holds the reference values reactive offsets are added to
type baseline struct {
	position mgl64.Vec2
	rotation float64
	scale    mgl64.Vec2

	// hold is the host position output while position reaction is off.
	// In custom start mode it differs from position.
	hold     mgl64.Vec2
	haveHold bool

	// captured marks the channels holding a valid value
	captured config.Invalidation
}

// Loop computes one Transform per tick.
// It is not safe for concurrent use; ticks must be sequential.
type Loop struct {
	settings config.Settings
	table    *wave.Table
	noise    opensimplex.Noise

	frame uint64

	posX, posY     smooth.Axis
	rotation       smooth.Axis
	scaleX, scaleY smooth.Axis

	base baseline
}

// NewLoop creates a loop for the given settings. table may be nil when
// the direct evaluation strategy is used.
func NewLoop(settings config.Settings, table *wave.Table) *Loop {
	settings.Normalize()
	if table == nil {
		table = wave.New(wave.DefaultSamples)
	}
	return &Loop{
		settings: settings,
		table:    table,
		noise:    opensimplex.New(settings.Wiggle.Seed),
	}
}

// Settings returns the settings currently in effect
func (l *Loop) Settings() config.Settings {
	return l.settings
}

// Frame returns the number of completed ticks
func (l *Loop) Frame() uint64 {
	return l.frame
}

// Time returns the virtual clock in seconds, driven by frame count
func (l *Loop) Time() float64 {
	return float64(l.frame) * float64(l.settings.IntervalMs) / 1000
}

// SetTable swaps the wave table, typically after the tick interval changed
func (l *Loop) SetTable(table *wave.Table) {
	if table != nil {
		l.table = table
	}
}

// Apply switches to next, discarding baseline and smoothing state only
// for the channels whose baseline-relevant settings changed
func (l *Loop) Apply(next config.Settings) {
	next.Normalize()
	inv := config.Changes(l.settings, next)
	if next.Wiggle.Seed != l.settings.Wiggle.Seed {
		l.noise = opensimplex.New(next.Wiggle.Seed)
	}
	l.settings = next
	l.Invalidate(inv)
}

// Invalidate discards baseline and smoothing state for the given channels.
// They re-initialize on the next tick.
func (l *Loop) Invalidate(mask config.Invalidation) {
	l.base.captured &^= mask

	if mask.Has(config.InvalidatePosition) {
		l.base.haveHold = false
		l.posX.Reset()
		l.posY.Reset()
	}
	if mask.Has(config.InvalidateRotation) {
		l.rotation.Reset()
	}
	if mask.Has(config.InvalidateScale) {
		l.scaleX.Reset()
		l.scaleY.Reset()
	}
}

// Tick samples input and returns the transform for the current frame.
// src is only consulted while a baseline is missing; if it fails the
// tick is abandoned and the frame counter is left untouched.
func (l *Loop) Tick(src TransformSource, in input.Sampler) (Transform, error) {
	if err := l.captureBaselines(src); err != nil {
		return Transform{}, err
	}

	t := l.Time()
	out := Transform{
		Position: l.nextPosition(in, t),
		Rotation: l.nextRotation(t),
		Scale:    l.nextScale(in, t),
	}

	l.frame++
	return out, nil
}

func (l *Loop) captureBaselines(src TransformSource) error {
	s := l.settings
	missing := config.InvalidateAll &^ l.base.captured
	needHold := !s.Position.Enabled && !l.base.haveHold
	if missing == config.InvalidateNone && !needHold {
		return nil
	}

	needHost := needHold ||
		missing.Has(config.InvalidateRotation) ||
		(missing.Has(config.InvalidatePosition) && s.Position.StartMode == config.StartCurrent) ||
		(missing.Has(config.InvalidateScale) && s.Scale.StartMode == config.StartCurrent)

	var current Transform
	if needHost {
		var err error
		if current, err = src.CurrentTransform(); err != nil {
			return err
		}
	}

	if missing.Has(config.InvalidatePosition) {
		if s.Position.StartMode == config.StartCustom {
			l.base.position = mgl64.Vec2{s.Position.CustomX, s.Position.CustomY}
		} else {
			l.base.position = current.Position
		}
	}
	if needHost && !l.base.haveHold {
		l.base.hold = current.Position
		l.base.haveHold = true
	}
	if missing.Has(config.InvalidateRotation) {
		l.base.rotation = current.Rotation
	}
	if missing.Has(config.InvalidateScale) {
		if s.Scale.StartMode == config.StartCustom {
			l.base.scale = mgl64.Vec2{s.Scale.CustomX, s.Scale.CustomY}
		} else {
			l.base.scale = current.Scale
		}
	}

	l.base.captured = config.InvalidateAll
	return nil
}

func (l *Loop) nextPosition(in input.Sampler, t float64) mgl64.Vec2 {
	p := l.settings.Position
	pos := l.base.hold

	if p.Enabled {
		x, y := in.CursorPosition()
		w, h := in.ScreenSize()
		target := l.base.position.Add(mgl64.Vec2{
			Normalize(x, w) * p.RangeX,
			Normalize(y, h) * p.RangeY,
		})
		pos = mgl64.Vec2{
			RoundHalfUp(l.posX.Advance(target.X(), p.Smoothing)),
			RoundHalfUp(l.posY.Advance(target.Y(), p.Smoothing)),
		}
	}

	if w := l.settings.Wiggle; w.Enabled {
		sinX, _ := l.oscillate(wave.KindPosition, w.PositionSpeedX, t, noiseRowPositionX)
		_, cosY := l.oscillate(wave.KindPosition, w.PositionSpeedY, t, noiseRowPositionY)
		pos = pos.Add(mgl64.Vec2{sinX * w.PositionAmplitudeX, cosY * w.PositionAmplitudeY})
	}

	return pos
}

func (l *Loop) nextRotation(t float64) float64 {
	w := l.settings.Wiggle
	base := l.base.rotation
	if !w.Enabled {
		return base
	}

	sin, _ := l.oscillate(wave.KindRotation, w.RotationSpeed, t, noiseRowRotation)
	target := base + sin*w.RotationAmplitude
	if w.SmoothOscillation {
		return l.rotation.Advance(target, w.Smoothing)
	}
	return target
}

func (l *Loop) nextScale(in input.Sampler, t float64) mgl64.Vec2 {
	s := l.settings.Scale
	w := l.settings.Wiggle

	var offset mgl64.Vec2
	if w.Enabled {
		sin, cos := l.oscillate(wave.KindScale, w.ScaleSpeed, t, noiseRowScale)
		offset = mgl64.Vec2{sin * w.ScaleAmplitude, cos * w.ScaleAmplitude}
	}

	if !s.Enabled {
		return l.base.scale.Add(offset)
	}

	// Left takes priority when both buttons are down
	target := l.base.scale
	switch {
	case s.LeftEnabled && in.LeftButtonPressed():
		target = mgl64.Vec2{s.LeftX, s.LeftY}
	case s.RightEnabled && in.RightButtonPressed():
		target = mgl64.Vec2{s.RightX, s.RightY}
	}

	if w.Enabled && w.SmoothOscillation {
		target = target.Add(offset)
		offset = mgl64.Vec2{}
	}

	return mgl64.Vec2{
		l.scaleX.Advance(target.X(), s.Smoothing),
		l.scaleY.Advance(target.Y(), s.Smoothing),
	}.Add(offset)
}

// oscillate returns the sine and cosine channels for a wave of the given
// speed in cycles per second at virtual time t
func (l *Loop) oscillate(kind wave.Kind, speed, t, row float64) (sin, cos float64) {
	w := l.settings.Wiggle

	if w.Shape == config.ShapeNoise {
		x := t * speed
		return l.noise.Eval2(x, row), l.noise.Eval2(x, row+noiseRowCosine)
	}

	if w.Strategy == config.StrategyDirect {
		return math.Sincos(2 * math.Pi * t * speed)
	}

	if l.table.Tick() == time.Duration(l.settings.IntervalMs)*time.Millisecond {
		if c, ok := l.table.CycleFor(speed, kind); ok {
			return c.At(l.frame)
		}
	}
	return l.table.Sample(t * speed)
}
