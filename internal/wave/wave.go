// Package wave provides precomputed sine/cosine tables used by the wiggle overlay.
package wave

import (
	"math"
	"time"
)

// DefaultSamples is the number of samples taken over one cycle
const DefaultSamples = 1000

// speedStep is the granularity of precomputed per-speed cycles
const speedStep = 0.1

// Kind identifies which transform channel a cycle is built for
type Kind int

const (
	KindPosition Kind = iota
	KindRotation
	KindScale
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindRotation:
		return "rotation"
	case KindScale:
		return "scale"
	default:
		return "unknown"
	}
}

// Table holds one cycle of sine and cosine samples and, optionally,
// per-speed cycles expanded at a fixed tick interval.
// A Table is never mutated after construction.
type Table struct {
	sin []float64
	cos []float64
	n   int

	tick     time.Duration
	maxSpeed float64
	cycles   map[Kind]map[int]*Cycle
}

// Cycle is one period of a wave sampled once per frame
type Cycle struct {
	Speed float64
	Sin   []float64
	Cos   []float64
}

// New creates a table with the given number of samples per cycle
func New(samples int) *Table {
	if samples < 1 {
		samples = DefaultSamples
	}

	t := &Table{
		sin: make([]float64, samples),
		cos: make([]float64, samples),
		n:   samples,
	}

	for i := 0; i < samples; i++ {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(samples))
		t.sin[i] = s
		t.cos[i] = c
	}

	return t
}

// NewWithCycles creates a table and expands per-frame cycles for every
// speed step up to maxSpeed for each of the given kinds.
func NewWithCycles(samples int, tick time.Duration, maxSpeed float64, kinds ...Kind) *Table {
	t := New(samples)
	if tick <= 0 || maxSpeed < speedStep || len(kinds) == 0 {
		return t
	}

	t.tick = tick
	t.maxSpeed = maxSpeed
	t.cycles = make(map[Kind]map[int]*Cycle, len(kinds))

	steps := speedKey(maxSpeed)
	for _, kind := range kinds {
		if _, ok := t.cycles[kind]; ok {
			continue
		}
		byKey := make(map[int]*Cycle, steps)
		for key := 1; key <= steps; key++ {
			byKey[key] = newCycle(float64(key)*speedStep, tick)
		}
		t.cycles[kind] = byKey
	}

	return t
}

func newCycle(speed float64, tick time.Duration) *Cycle {
	step := tick.Seconds() * speed
	frames := int(math.Round(1 / step))
	if frames < 1 {
		frames = 1
	}

	c := &Cycle{
		Speed: speed,
		Sin:   make([]float64, frames),
		Cos:   make([]float64, frames),
	}
	for i := 0; i < frames; i++ {
		s, cs := math.Sincos(2 * math.Pi * float64(i) * step)
		c.Sin[i] = s
		c.Cos[i] = cs
	}
	return c
}

// Samples returns the number of samples per cycle
func (t *Table) Samples() int {
	return t.n
}

// Tick returns the frame interval cycles were expanded for, zero if none
func (t *Table) Tick() time.Duration {
	return t.tick
}

// MaxSpeed returns the highest precomputed speed, zero if none
func (t *Table) MaxSpeed() float64 {
	return t.maxSpeed
}

// Sample returns the precomputed pair nearest below phase.
// Phase is taken modulo 1, so phase and phase+1 return the same pair.
func (t *Table) Sample(phase float64) (sin, cos float64) {
	idx := int(Fraction(phase) * float64(t.n))
	if idx >= t.n {
		idx = t.n - 1
	}
	return t.sin[idx], t.cos[idx]
}

// CycleFor returns the precomputed cycle for speed rounded to the nearest
// 0.1 and clamped to the table's maximum. ok is false when no cycle exists.
func (t *Table) CycleFor(speed float64, kind Kind) (c *Cycle, ok bool) {
	if t.cycles == nil || speed <= 0 {
		return nil, false
	}
	byKey, ok := t.cycles[kind]
	if !ok {
		return nil, false
	}

	if speed > t.maxSpeed {
		speed = t.maxSpeed
	}
	key := speedKey(speed)
	if key < 1 {
		return nil, false
	}
	c, ok = byKey[key]
	return c, ok
}

// At returns the cycle's pair for the given frame
func (c *Cycle) At(frame uint64) (sin, cos float64) {
	i := frame % uint64(len(c.Sin))
	return c.Sin[i], c.Cos[i]
}

// Len returns the number of frames in one period
func (c *Cycle) Len() int {
	return len(c.Sin)
}

// Fraction returns x modulo 1 in the range [0, 1)
func Fraction(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}

func speedKey(speed float64) int {
	return int(math.Round(speed / speedStep))
}
