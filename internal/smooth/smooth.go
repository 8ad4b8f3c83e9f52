// Package smooth provides first-order exponential smoothing for a single value.
package smooth

// Axis exponentially approaches a target each time it is advanced.
// The zero value is uninitialized: the first Advance snaps to its target.
type Axis struct {
	value       float64
	initialized bool
}

// Advance moves the axis toward target by factor and returns the new value.
// factor is clamped to [0,1]: 1 snaps to target, 0 never moves.
func (a *Axis) Advance(target, factor float64) float64 {
	if !a.initialized {
		a.value = target
		a.initialized = true
		return a.value
	}

	switch {
	case factor < 0:
		factor = 0
	case factor > 1:
		factor = 1
	}

	a.value += (target - a.value) * factor
	return a.value
}

// Value returns the current value and whether the axis has been initialized
func (a *Axis) Value() (float64, bool) {
	return a.value, a.initialized
}

// Initialized reports whether the axis is tracking a value
func (a *Axis) Initialized() bool {
	return a.initialized
}

// Reset returns the axis to the uninitialized state
func (a *Axis) Reset() {
	a.value = 0
	a.initialized = false
}
