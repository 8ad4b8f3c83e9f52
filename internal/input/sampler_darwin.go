//go:build darwin

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

// Get current mouse position in global display coordinates
static CGPoint currentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    if (event == NULL) {
        CGPoint zero = {0, 0};
        return zero;
    }
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

static size_t mainDisplayWidth() {
    return CGDisplayPixelsWide(CGMainDisplayID());
}

static size_t mainDisplayHeight() {
    return CGDisplayPixelsHigh(CGMainDisplayID());
}

static bool mouseButtonDown(int button) {
    CGMouseButton cgButton = button == 1 ? kCGMouseButtonRight : kCGMouseButtonLeft;
    return CGEventSourceButtonState(kCGEventSourceStateCombinedSessionState, cgButton);
}
*/
import "C"

// darwinSampler reads cursor and button state through CoreGraphics
type darwinSampler struct{}

// NewSampler returns the CoreGraphics-backed sampler
func NewSampler() Sampler {
	return darwinSampler{}
}

func (darwinSampler) CursorPosition() (x, y float64) {
	p := C.currentMousePosition()
	return float64(p.x), float64(p.y)
}

func (darwinSampler) ScreenSize() (w, h float64) {
	cw := float64(C.mainDisplayWidth())
	ch := float64(C.mainDisplayHeight())
	if cw <= 0 || ch <= 0 {
		return DefaultScreenWidth, DefaultScreenHeight
	}
	return cw, ch
}

func (darwinSampler) LeftButtonPressed() bool {
	return bool(C.mouseButtonDown(0))
}

func (darwinSampler) RightButtonPressed() bool {
	return bool(C.mouseButtonDown(1))
}
