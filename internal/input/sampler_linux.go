//go:build linux

package input

import (
	"log"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Sampler queries the pointer on the default screen's root window
type x11Sampler struct {
	conn   *xgb.Conn
	root   xproto.Window
	width  float64
	height float64

	failOnce sync.Once
}

// NewSampler connects to the X server named by $DISPLAY, or returns the
// inert sampler when no X server is reachable
func NewSampler() Sampler {
	conn, err := xgb.NewConn()
	if err != nil {
		logUnavailable(err)
		return Inert()
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	s := &x11Sampler{
		conn:   conn,
		root:   screen.Root,
		width:  float64(screen.WidthInPixels),
		height: float64(screen.HeightInPixels),
	}
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = DefaultScreenWidth, DefaultScreenHeight
	}

	log.Printf("Input: X11 sampler on %dx%d root window", int(s.width), int(s.height))
	return s
}

func (s *x11Sampler) query() *xproto.QueryPointerReply {
	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		s.failOnce.Do(func() {
			log.Printf("Input: QueryPointer failed, reporting defaults: %v", err)
		})
		return nil
	}
	return reply
}

// Snapshot reads position and buttons with a single QueryPointer
func (s *x11Sampler) Snapshot() Snapshot {
	snap := Snapshot{Width: s.width, Height: s.height}
	if reply := s.query(); reply != nil {
		snap.X, snap.Y = float64(reply.RootX), float64(reply.RootY)
		snap.Left = reply.Mask&xproto.KeyButMaskButton1 != 0
		snap.Right = reply.Mask&xproto.KeyButMaskButton3 != 0
	}
	return snap
}

func (s *x11Sampler) CursorPosition() (x, y float64) {
	reply := s.query()
	if reply == nil {
		return 0, 0
	}
	return float64(reply.RootX), float64(reply.RootY)
}

func (s *x11Sampler) ScreenSize() (w, h float64) {
	return s.width, s.height
}

func (s *x11Sampler) LeftButtonPressed() bool {
	reply := s.query()
	return reply != nil && reply.Mask&xproto.KeyButMaskButton1 != 0
}

func (s *x11Sampler) RightButtonPressed() bool {
	reply := s.query()
	return reply != nil && reply.Mask&xproto.KeyButMaskButton3 != 0
}
