// Package screen is the ASCII demo renderer: a cursor moved by W/A/S/D.
package screen

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/temoto/keypump/internal/keystate"
	"github.com/temoto/keypump/internal/types"
)

type Renderer interface {
	Clear()
	Render(keystate.Reader)
}

type Registrar interface {
	Register(code types.KeyCode, f func(keystate.Reader))
}

type Config struct {
	Width  int  `hcl:"width"`
	Height int  `hcl:"height"`
	ANSI   bool `hcl:"ansi"`
	Status bool `hcl:"status"`
}

const (
	DefaultWidth  = 40
	DefaultHeight = 40
	clearLines    = 100
	ansiClear     = "\x1b[H\x1b[2J"
)

type Screen struct {
	mu     sync.Mutex
	w      *bufio.Writer
	width  int
	height int
	ansi   bool
	status bool
	x, y   int
}

// compile-time interface compliance test
var _ Renderer = new(Screen)

// New ANSI clear is used only when config asks for it and w is a terminal.
func New(w io.Writer, config Config) *Screen {
	s := &Screen{
		w:      bufio.NewWriter(w),
		width:  config.Width,
		height: config.Height,
		status: config.Status,
		x:      1,
		y:      1,
	}
	if s.width <= 0 {
		s.width = DefaultWidth
	}
	if s.height <= 0 {
		s.height = DefaultHeight
	}
	if f, ok := w.(*os.File); ok && config.ANSI {
		s.ansi = isatty.IsTerminal(f.Fd())
	}
	return s
}

// Bind registers movement handlers. Cursor moves on press and autorepeat.
func (s *Screen) Bind(r Registrar) {
	r.Register(types.KeyW, func(k keystate.Reader) { s.move(k, types.KeyW, 0, 1) })
	r.Register(types.KeyS, func(k keystate.Reader) { s.move(k, types.KeyS, 0, -1) })
	r.Register(types.KeyA, func(k keystate.Reader) { s.move(k, types.KeyA, 1, 0) })
	r.Register(types.KeyD, func(k keystate.Reader) { s.move(k, types.KeyD, -1, 0) })
}

func (s *Screen) move(k keystate.Reader, code types.KeyCode, dx, dy int) {
	if !k.Pressed(code) {
		return
	}
	s.mu.Lock()
	s.x = clamp(s.x+dx, 0, s.width)
	s.y = clamp(s.y+dy, 0, s.height)
	s.mu.Unlock()
}

func (s *Screen) Position() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ansi {
		s.w.WriteString(ansiClear)
	} else {
		s.w.WriteString(strings.Repeat("\n", clearLines))
	}
	s.w.Flush()
}

// Render draws grid with rows from top (y=height) to bottom and
// columns from x=width down to 0, same orientation the movement keys assume.
func (s *Screen) Render(k keystate.Reader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := make([]byte, 0, s.width+2)
	for y := s.height; y >= 0; y-- {
		line = line[:0]
		for x := s.width; x >= 0; x-- {
			if x == s.x && y == s.y {
				line = append(line, 'X')
			} else {
				line = append(line, ' ')
			}
		}
		line = append(line, '\n')
		s.w.Write(line)
	}
	if s.status && k != nil {
		s.w.WriteString(statusLine(k))
	}
	s.w.Flush()
}

func statusLine(k keystate.Reader) string {
	parts := make([]string, 0, 4)
	for _, code := range []types.KeyCode{types.KeyW, types.KeyA, types.KeyS, types.KeyD} {
		mark := "."
		if k.Pressed(code) {
			mark = "#"
		}
		parts = append(parts, code.String()[len("KEY_"):]+mark)
	}
	return strings.Join(parts, " ") + "\n"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
