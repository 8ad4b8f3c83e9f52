//go:build windows

package input

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos     = user32.NewProc("GetCursorPos")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

const (
	SM_CXSCREEN = 0
	SM_CYSCREEN = 1
	VK_LBUTTON  = 0x01
	VK_RBUTTON  = 0x02
)

type point struct {
	X, Y int32
}

// windowsSampler queries user32 directly on every call
type windowsSampler struct{}

// NewSampler returns the user32-backed sampler, or the inert sampler when
// user32 cannot be loaded
func NewSampler() Sampler {
	if err := user32.Load(); err != nil {
		logUnavailable(err)
		return Inert()
	}
	for _, p := range []*windows.LazyProc{procGetCursorPos, procGetSystemMetrics, procGetAsyncKeyState} {
		if err := p.Find(); err != nil {
			logUnavailable(err)
			return Inert()
		}
	}
	return windowsSampler{}
}

func (windowsSampler) CursorPosition() (x, y float64) {
	var pt point
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0
	}
	return float64(pt.X), float64(pt.Y)
}

func (windowsSampler) ScreenSize() (w, h float64) {
	cx, _, _ := procGetSystemMetrics.Call(SM_CXSCREEN)
	cy, _, _ := procGetSystemMetrics.Call(SM_CYSCREEN)
	if int32(cx) <= 0 || int32(cy) <= 0 {
		return DefaultScreenWidth, DefaultScreenHeight
	}
	return float64(int32(cx)), float64(int32(cy))
}

func (windowsSampler) LeftButtonPressed() bool {
	return keyDown(VK_LBUTTON)
}

func (windowsSampler) RightButtonPressed() bool {
	return keyDown(VK_RBUTTON)
}

// keyDown checks the most significant bit of GetAsyncKeyState
func keyDown(vk uintptr) bool {
	ret, _, _ := procGetAsyncKeyState.Call(vk)
	return uint16(ret)&0x8000 != 0
}
