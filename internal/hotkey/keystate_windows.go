//go:build windows

package hotkey

import (
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

// virtual-key codes per canonical name; modifiers list both sides
var vkCodes = map[string][]uintptr{
	"CTRL":      {0x11},
	"ALT":       {0x12},
	"SHIFT":     {0x10},
	"CMD":       {0x5B, 0x5C},
	"SPACE":     {0x20},
	"ENTER":     {0x0D},
	"ESC":       {0x1B},
	"BACKSPACE": {0x08},
	"TAB":       {0x09},
	"PAGEUP":    {0x21},
	"PAGEDOWN":  {0x22},
	"END":       {0x23},
	"HOME":      {0x24},
	"LEFT":      {0x25},
	"UP":        {0x26},
	"RIGHT":     {0x27},
	"DOWN":      {0x28},
	"INSERT":    {0x2D},
	"DELETE":    {0x2E},
}

type asyncKeyState struct{}

func platformKeyState() KeyState {
	if err := procGetAsyncKeyState.Find(); err != nil {
		return nil
	}
	return asyncKeyState{}
}

func vkFor(name string) []uintptr {
	if codes, ok := vkCodes[name]; ok {
		return codes
	}
	if len(name) == 1 {
		// 'A'-'Z' and '0'-'9' share their ASCII codes
		return []uintptr{uintptr(name[0])}
	}
	var n int
	for _, c := range name[1:] {
		n = n*10 + int(c-'0')
	}
	return []uintptr{uintptr(0x70 + n - 1)} // F1 = 0x70
}

func (asyncKeyState) KeyDown(name string) bool {
	for _, vk := range vkFor(name) {
		ret, _, _ := procGetAsyncKeyState.Call(vk)
		if ret&0x8000 != 0 {
			return true
		}
	}
	return false
}
