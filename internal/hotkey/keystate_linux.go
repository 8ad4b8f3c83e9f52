//go:build linux

package hotkey

import (
	"log"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X keysyms per canonical name; modifiers list both sides
var namedKeysyms = map[string][]xproto.Keysym{
	"CTRL":      {0xffe3, 0xffe4},
	"ALT":       {0xffe9, 0xffea},
	"SHIFT":     {0xffe1, 0xffe2},
	"CMD":       {0xffeb, 0xffec},
	"SPACE":     {0x0020},
	"ENTER":     {0xff0d},
	"ESC":       {0xff1b},
	"BACKSPACE": {0xff08},
	"TAB":       {0xff09},
	"HOME":      {0xff50},
	"LEFT":      {0xff51},
	"UP":        {0xff52},
	"RIGHT":     {0xff53},
	"DOWN":      {0xff54},
	"PAGEUP":    {0xff55},
	"PAGEDOWN":  {0xff56},
	"END":       {0xff57},
	"INSERT":    {0xff63},
	"DELETE":    {0xffff},
}

func keysymsFor(name string) []xproto.Keysym {
	if syms, ok := namedKeysyms[name]; ok {
		return syms
	}
	if len(name) == 1 {
		c := name[0]
		if c >= 'A' && c <= 'Z' {
			return []xproto.Keysym{xproto.Keysym(c), xproto.Keysym(c + ('a' - 'A'))}
		}
		return []xproto.Keysym{xproto.Keysym(c)}
	}
	var n int
	for _, c := range name[1:] {
		n = n*10 + int(c-'0')
	}
	return []xproto.Keysym{xproto.Keysym(0xffbe + n - 1)} // XK_F1
}

// x11KeyState reads the server keymap with QueryKeymap
type x11KeyState struct {
	mu     sync.Mutex
	conn   *xgb.Conn
	bySym  map[xproto.Keysym][]xproto.Keycode
	byName map[string][]xproto.Keycode
}

func platformKeyState() KeyState {
	conn, err := xgb.NewConn()
	if err != nil {
		log.Printf("Hotkey Engine: X server unavailable: %v", err)
		return nil
	}

	setup := xproto.Setup(conn)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		log.Printf("Hotkey Engine: GetKeyboardMapping failed: %v", err)
		conn.Close()
		return nil
	}

	s := &x11KeyState{
		conn:   conn,
		bySym:  make(map[xproto.Keysym][]xproto.Keycode),
		byName: make(map[string][]xproto.Keycode),
	}
	per := int(mapping.KeysymsPerKeycode)
	for i := 0; i < int(count); i++ {
		code := xproto.Keycode(int(setup.MinKeycode) + i)
		for j := 0; j < per; j++ {
			sym := mapping.Keysyms[i*per+j]
			if sym != 0 {
				s.bySym[sym] = append(s.bySym[sym], code)
			}
		}
	}
	return s
}

func (s *x11KeyState) codes(name string) []xproto.Keycode {
	if codes, ok := s.byName[name]; ok {
		return codes
	}
	seen := make(map[xproto.Keycode]bool)
	var codes []xproto.Keycode
	for _, sym := range keysymsFor(name) {
		for _, code := range s.bySym[sym] {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	s.byName[name] = codes
	return codes
}

func (s *x11KeyState) KeyDown(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := s.codes(name)
	if len(codes) == 0 {
		return false
	}
	keymap, err := xproto.QueryKeymap(s.conn).Reply()
	if err != nil {
		return false
	}
	for _, code := range codes {
		if keymap.Keys[code/8]&(1<<(code%8)) != 0 {
			return true
		}
	}
	return false
}
