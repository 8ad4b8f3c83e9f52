// Package motion turns sampled cursor input into scene item transforms.
//
// A Loop is advanced once per tick by whoever owns the periodic callback.
// It keeps one smoothed value per reactive axis and a baseline per
// channel; both survive until the settings that produced them change.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is the position, rotation and nonuniform scale of a scene item
type Transform struct {
	Position mgl64.Vec2 `json:"position"`
	Rotation float64    `json:"rotation"`
	Scale    mgl64.Vec2 `json:"scale"`
}

// Identity returns a transform at the origin with unit scale
func Identity() Transform {
	return Transform{Scale: mgl64.Vec2{1, 1}}
}

// TransformSource reports the host's current transform for the target item
type TransformSource interface {
	CurrentTransform() (Transform, error)
}

// SourceFunc adapts a function to TransformSource
type SourceFunc func() (Transform, error)

func (f SourceFunc) CurrentTransform() (Transform, error) {
	return f()
}

// RoundHalfUp rounds to the nearest integer with ties going up:
// 0.5 becomes 1 and -0.5 becomes 0.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Normalize maps a screen coordinate to [-1, 1] with 0 at the screen center.
// A non-positive dimension yields 0.
func Normalize(coord, dimension float64) float64 {
	if dimension <= 0 {
		return 0
	}
	return ((coord / dimension) - 0.5) * 2
}
