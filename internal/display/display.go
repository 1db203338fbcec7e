// Package display holds the 64x32 monochrome frame buffer written by the
// sprite and clear instructions, and converts it for the frontends.
package display

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	Width       = 64
	Height      = 32
	SpriteWidth = 8 // one sprite byte per row, MSB is the leftmost pixel
)

// Default colours used by the frontends.
var (
	On  = color.RGBA{0xE8, 0xE8, 0xE8, 0xFF}
	Off = color.RGBA{0x10, 0x10, 0x10, 0xFF}
)

// Screen is the frame buffer, row-major. The dirty flag records whether it
// changed since the last flush to a renderer.
type Screen struct {
	pix   [Height][Width]bool
	dirty bool
}

func New() *Screen { return &Screen{} }

// Clear switches every pixel off and marks the screen dirty.
func (s *Screen) Clear() {
	s.pix = [Height][Width]bool{}
	s.dirty = true
}

// VisibleRows returns how many of n sprite rows starting at screen row y
// land on screen. Rows past the bottom edge are clipped, not wrapped.
func VisibleRows(y byte, n int) int {
	top := int(y) % Height
	if top+n > Height {
		return Height - top
	}
	return n
}

// DrawSprite XORs the sprite rows onto the screen with the top-left corner at
// (x mod Width, y mod Height). Pixels past the right or bottom edge are
// clipped. It reports whether any lit pixel was switched off.
func (s *Screen) DrawSprite(x, y byte, rows []byte) (collision bool) {
	left := int(x) % Width
	top := int(y) % Height
	for i, bits := range rows {
		row := top + i
		if row >= Height {
			break
		}
		for col := left; col < left+SpriteWidth && col < Width; col++ {
			if bits&0x80 != 0 {
				if s.pix[row][col] {
					collision = true
				}
				s.pix[row][col] = !s.pix[row][col]
			}
			bits <<= 1
		}
	}
	s.dirty = true
	return collision
}

// Pixel reports whether the pixel at column x, row y is lit. Out of range
// coordinates read as off.
func (s *Screen) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return false
	}
	return s.pix[y][x]
}

// Lit returns the number of lit pixels.
func (s *Screen) Lit() int {
	n := 0
	for y := range s.pix {
		for x := range s.pix[y] {
			if s.pix[y][x] {
				n++
			}
		}
	}
	return n
}

func (s *Screen) Dirty() bool { return s.dirty }

// MarkClean clears the dirty flag after the frame was handed to a renderer.
func (s *Screen) MarkClean() { s.dirty = false }

// WriteRGBA fills dst (Width*Height*4 bytes) with the frame in RGBA order,
// the layout ebiten's WritePixels and image.RGBA expect.
func (s *Screen) WriteRGBA(dst []byte, on, off color.RGBA) {
	i := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := off
			if s.pix[y][x] {
				c = on
			}
			dst[i], dst[i+1], dst[i+2], dst[i+3] = c.R, c.G, c.B, c.A
			i += 4
		}
	}
}

// Image returns the frame as a Width x Height image.
func (s *Screen) Image(on, off color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	s.WriteRGBA(img.Pix, on, off)
	return img
}

// ScaledImage upscales src by an integer factor with nearest-neighbour
// sampling so pixels stay square and sharp.
func ScaledImage(src image.Image, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Checksum is a CRC32 over the packed pixel bits. Headless runs compare it
// against a known value.
func (s *Screen) Checksum() uint32 {
	return crc32.ChecksumIEEE(s.SaveState())
}

// SaveState packs the pixels into Width*Height/8 bytes, MSB first.
func (s *Screen) SaveState() []byte {
	out := make([]byte, Width*Height/8)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if s.pix[y][x] {
				i := y*Width + x
				out[i/8] |= 0x80 >> (i % 8)
			}
		}
	}
	return out
}

// LoadState restores pixels packed by SaveState and marks the screen dirty.
func (s *Screen) LoadState(data []byte) error {
	if len(data) != Width*Height/8 {
		return fmt.Errorf("screen state has %d bytes, want %d", len(data), Width*Height/8)
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			i := y*Width + x
			s.pix[y][x] = data[i/8]&(0x80>>(i%8)) != 0
		}
	}
	s.dirty = true
	return nil
}
