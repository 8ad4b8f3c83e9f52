package config

import "errors"

var (
	// ErrPresetNotFound is returned when a named preset does not exist
	ErrPresetNotFound = errors.New("preset not found")

	// ErrInvalidPresetName is returned for empty preset names
	ErrInvalidPresetName = errors.New("invalid preset name")

	// ErrMalformedPresets is returned when a preset file cannot be parsed
	ErrMalformedPresets = errors.New("malformed preset data")
)
