//go:build !windows && !darwin && !linux

package input

import (
	"log"
	"runtime"
)

// NewSampler returns the inert sampler on unsupported platforms
func NewSampler() Sampler {
	log.Printf("Input: Cursor sampling not supported on %s, using defaults", runtime.GOOS)
	return Inert()
}
