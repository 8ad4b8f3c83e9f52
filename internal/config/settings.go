package config

// StartMode selects where a baseline comes from
type StartMode string

const (
	// StartCurrent captures the baseline from the host's current transform
	StartCurrent StartMode = "current"
	// StartCustom uses the configured custom coordinates or scale
	StartCustom StartMode = "custom"
)

// Strategy selects how wiggle waves are evaluated
type Strategy string

const (
	// StrategyTable reads precomputed samples
	StrategyTable Strategy = "table"
	// StrategyDirect calls math.Sincos every tick
	StrategyDirect Strategy = "direct"
)

// Shape selects the waveform driving the wiggle overlay
type Shape string

const (
	ShapeSine  Shape = "sine"
	ShapeNoise Shape = "noise"
)

// Settings is one complete motion configuration. Presets store snapshots of it.
type Settings struct {
	// Scene is the name of the scene holding the target item
	Scene string `json:"scene"`

	// Source is the name of the source whose scene item is driven
	Source string `json:"source"`

	// IntervalMs is the tick interval in milliseconds
	IntervalMs int `json:"interval_ms"`

	Position PositionSettings `json:"position"`
	Scale    ScaleSettings    `json:"scale"`
	Wiggle   WiggleSettings   `json:"wiggle"`
	CPU      CPUSettings      `json:"cpu"`
}

// PositionSettings controls how the cursor moves the item
type PositionSettings struct {
	Enabled bool `json:"enabled"`

	// RangeX and RangeY are the pixel offsets reached at the screen edges
	RangeX float64 `json:"range_x"`
	RangeY float64 `json:"range_y"`

	StartMode StartMode `json:"start_mode"`
	CustomX   float64   `json:"custom_x"`
	CustomY   float64   `json:"custom_y"`

	// Smoothing is the per-tick interpolation weight in [0,1]
	Smoothing float64 `json:"smoothing"`
}

// ScaleSettings controls how mouse buttons scale the item
type ScaleSettings struct {
	Enabled bool `json:"enabled"`

	LeftEnabled  bool    `json:"left_enabled"`
	LeftX        float64 `json:"left_x"`
	LeftY        float64 `json:"left_y"`
	RightEnabled bool    `json:"right_enabled"`
	RightX       float64 `json:"right_x"`
	RightY       float64 `json:"right_y"`

	StartMode StartMode `json:"start_mode"`
	CustomX   float64   `json:"custom_x"`
	CustomY   float64   `json:"custom_y"`

	Smoothing float64 `json:"smoothing"`
}

// WiggleSettings controls the time-driven oscillation overlay
type WiggleSettings struct {
	Enabled bool `json:"enabled"`

	// RotationAmplitude is in degrees, speeds are in cycles per second
	RotationAmplitude float64 `json:"rotation_amplitude"`
	RotationSpeed     float64 `json:"rotation_speed"`

	PositionAmplitudeX float64 `json:"position_amplitude_x"`
	PositionAmplitudeY float64 `json:"position_amplitude_y"`
	PositionSpeedX     float64 `json:"position_speed_x"`
	PositionSpeedY     float64 `json:"position_speed_y"`

	ScaleAmplitude float64 `json:"scale_amplitude"`
	ScaleSpeed     float64 `json:"scale_speed"`

	Strategy Strategy `json:"strategy"`
	Shape    Shape    `json:"shape"`

	// Seed feeds the noise generator when Shape is "noise"
	Seed int64 `json:"seed,omitempty"`

	// SmoothOscillation folds rotation and scale oscillation into the
	// smoothed target instead of adding it afterwards
	SmoothOscillation bool    `json:"smooth_oscillation"`
	Smoothing         float64 `json:"smoothing"`

	// MaxCycleSpeed bounds the speeds expanded into per-frame cycles
	MaxCycleSpeed float64 `json:"max_cycle_speed"`
}

// CPUSettings controls the activity skip policy
type CPUSettings struct {
	Enabled bool `json:"enabled"`

	// MinIntervalMs is the minimum spacing between updates while idle
	MinIntervalMs int `json:"min_interval_ms"`

	// MoveThresholdPx is the displacement that counts as movement
	MoveThresholdPx float64 `json:"move_threshold_px"`

	// InactivityTimeoutMs locks the policy into skipping after this long
	// without movement. Zero disables the lock.
	InactivityTimeoutMs int `json:"inactivity_timeout_ms"`
}

// DefaultSettings returns a configuration with every reaction disabled
func DefaultSettings() Settings {
	return Settings{
		IntervalMs: 16,
		Position: PositionSettings{
			RangeX:    200,
			RangeY:    100,
			StartMode: StartCurrent,
			Smoothing: 0.2,
		},
		Scale: ScaleSettings{
			LeftEnabled:  true,
			LeftX:        1.2,
			LeftY:        1.2,
			RightEnabled: true,
			RightX:       0.8,
			RightY:       0.8,
			StartMode:    StartCurrent,
			CustomX:      1,
			CustomY:      1,
			Smoothing:    0.3,
		},
		Wiggle: WiggleSettings{
			RotationAmplitude:  5,
			RotationSpeed:      0.5,
			PositionAmplitudeX: 10,
			PositionAmplitudeY: 10,
			PositionSpeedX:     0.5,
			PositionSpeedY:     0.5,
			ScaleAmplitude:     0.05,
			ScaleSpeed:         0.5,
			Strategy:           StrategyTable,
			Shape:              ShapeSine,
			Smoothing:          0.5,
			MaxCycleSpeed:      10,
		},
		CPU: CPUSettings{
			MinIntervalMs:       100,
			MoveThresholdPx:     2,
			InactivityTimeoutMs: 0,
		},
	}
}

// Normalize clamps out-of-range values and replaces unknown enum values
// with their defaults
func (s *Settings) Normalize() {
	if s.IntervalMs < 1 {
		s.IntervalMs = 1
	}

	s.Position.Smoothing = clamp01(s.Position.Smoothing)
	s.Scale.Smoothing = clamp01(s.Scale.Smoothing)
	s.Wiggle.Smoothing = clamp01(s.Wiggle.Smoothing)

	if s.Position.StartMode != StartCustom {
		s.Position.StartMode = StartCurrent
	}
	if s.Scale.StartMode != StartCustom {
		s.Scale.StartMode = StartCurrent
	}
	if s.Wiggle.Strategy != StrategyDirect {
		s.Wiggle.Strategy = StrategyTable
	}
	if s.Wiggle.Shape != ShapeNoise {
		s.Wiggle.Shape = ShapeSine
	}
	if s.Wiggle.MaxCycleSpeed < 0 {
		s.Wiggle.MaxCycleSpeed = 0
	}

	if s.CPU.MinIntervalMs < 0 {
		s.CPU.MinIntervalMs = 0
	}
	if s.CPU.MoveThresholdPx < 0 {
		s.CPU.MoveThresholdPx = 0
	}
	if s.CPU.InactivityTimeoutMs < 0 {
		s.CPU.InactivityTimeoutMs = 0
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Invalidation is a set of transform channels whose baseline and
// smoothing state must be discarded
type Invalidation uint8

const (
	InvalidatePosition Invalidation = 1 << iota
	InvalidateRotation
	InvalidateScale

	InvalidateNone Invalidation = 0
	InvalidateAll               = InvalidatePosition | InvalidateRotation | InvalidateScale
)

// Has reports whether every channel in other is part of the set
func (i Invalidation) Has(other Invalidation) bool {
	return i&other == other
}

// Changes reports which channels lose their baseline when moving from
// prev to next. Toggling a reaction on or off never invalidates.
func Changes(prev, next Settings) Invalidation {
	if prev.Scene != next.Scene || prev.Source != next.Source {
		return InvalidateAll
	}

	inv := InvalidateNone
	if prev.Position.StartMode != next.Position.StartMode ||
		prev.Position.CustomX != next.Position.CustomX ||
		prev.Position.CustomY != next.Position.CustomY {
		inv |= InvalidatePosition
	}
	if prev.Scale.StartMode != next.Scale.StartMode ||
		prev.Scale.CustomX != next.Scale.CustomX ||
		prev.Scale.CustomY != next.Scale.CustomY {
		inv |= InvalidateScale
	}
	return inv
}
