// Package term is the terminal frontend: it draws the frame buffer with
// block glyphs on the alternate screen and reads keys from a raw stdin.
package term

import (
	"bytes"
	"io"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

const (
	onPixel  = "█"
	offPixel = " "

	// border is two block columns plus one blank column on each side
	borderWidth = 3

	// Columns and Lines are the terminal size needed for one frame.
	Columns = display.Width + 2*borderWidth
	Lines   = display.Height + 4

	enterScreen = "\x1b[?1049h\x1b[?25l"
	leaveScreen = "\x1b[?25h\x1b[?1049l"
	cursorHome  = "\x1b[H"
)

// Renderer writes whole frames to out. Lines end in CRLF since the terminal
// is in raw mode.
type Renderer struct {
	out io.Writer
	buf bytes.Buffer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Enter switches to the alternate screen and hides the cursor.
func (r *Renderer) Enter() error {
	_, err := io.WriteString(r.out, enterScreen)
	return err
}

// Leave restores the normal screen.
func (r *Renderer) Leave() error {
	_, err := io.WriteString(r.out, leaveScreen)
	return err
}

// Render draws the frame with a solid border. The frame is written with a
// single call.
func (r *Renderer) Render(s *display.Screen) error {
	r.buf.Reset()
	r.buf.WriteString(cursorHome)
	r.solidLine()
	r.blankLine()
	for y := 0; y < display.Height; y++ {
		r.buf.WriteString(onPixel + onPixel + offPixel)
		for x := 0; x < display.Width; x++ {
			if s.Pixel(x, y) {
				r.buf.WriteString(onPixel)
			} else {
				r.buf.WriteString(offPixel)
			}
		}
		r.buf.WriteString(offPixel + onPixel + onPixel + "\r\n")
	}
	r.blankLine()
	r.solidLine()
	_, err := r.out.Write(r.buf.Bytes())
	return err
}

func (r *Renderer) solidLine() {
	for i := 0; i < Columns; i++ {
		r.buf.WriteString(onPixel)
	}
	r.buf.WriteString("\r\n")
}

func (r *Renderer) blankLine() {
	r.buf.WriteString(onPixel + onPixel + offPixel)
	for i := 0; i < display.Width; i++ {
		r.buf.WriteString(offPixel)
	}
	r.buf.WriteString(offPixel + onPixel + onPixel + "\r\n")
}
