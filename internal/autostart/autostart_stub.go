//go:build !windows && !darwin && !linux

package autostart

// Enable is unsupported here
func Enable() error {
	return ErrUnsupported
}

// Disable is unsupported here
func Disable() error {
	return ErrUnsupported
}

// IsEnabled always reports false
func IsEnabled() bool {
	return false
}
