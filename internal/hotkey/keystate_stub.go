//go:build !windows && !darwin && !linux

package hotkey

func platformKeyState() KeyState {
	return nil
}
