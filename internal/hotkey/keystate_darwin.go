//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

static int keyDown(uint16_t code) {
    return CGEventSourceKeyState(kCGEventSourceStateCombinedSessionState, (CGKeyCode)code) ? 1 : 0;
}
*/
import "C"

// macOS virtual key codes per canonical name; modifiers list both sides
var macKeyCodes = map[string][]uint16{
	"CTRL": {59, 62}, "ALT": {58, 61}, "SHIFT": {56, 60}, "CMD": {55, 54},
	"SPACE": {49}, "ENTER": {36}, "ESC": {53}, "BACKSPACE": {51}, "TAB": {48},
	"PAGEUP": {116}, "PAGEDOWN": {121}, "HOME": {115}, "END": {119},
	"LEFT": {123}, "RIGHT": {124}, "DOWN": {125}, "UP": {126},
	"INSERT": {114}, "DELETE": {117},

	"A": {0}, "S": {1}, "D": {2}, "F": {3}, "H": {4}, "G": {5}, "Z": {6},
	"X": {7}, "C": {8}, "V": {9}, "B": {11}, "Q": {12}, "W": {13}, "E": {14},
	"R": {15}, "Y": {16}, "T": {17}, "O": {31}, "U": {32}, "I": {34}, "P": {35},
	"L": {37}, "J": {38}, "K": {40}, "N": {45}, "M": {46},

	"1": {18}, "2": {19}, "3": {20}, "4": {21}, "6": {22}, "5": {23},
	"9": {25}, "7": {26}, "8": {28}, "0": {29},

	"F1": {122}, "F2": {120}, "F3": {99}, "F4": {118}, "F5": {96}, "F6": {97},
	"F7": {98}, "F8": {100}, "F9": {101}, "F10": {109}, "F11": {103}, "F12": {111},
}

type cgKeyState struct{}

func platformKeyState() KeyState {
	return cgKeyState{}
}

func (cgKeyState) KeyDown(name string) bool {
	for _, code := range macKeyCodes[name] {
		if C.keyDown(C.uint16_t(code)) != 0 {
			return true
		}
	}
	return false
}
