package display

import (
	"image/color"
	"strings"
)

// Palette is a named pair of pixel colours.
type Palette struct {
	Name    string
	On, Off color.RGBA
}

// Palettes lists the built-in palettes. Index 0 is the default.
var Palettes = []Palette{
	{"mono", On, Off},
	{"green", color.RGBA{0x9B, 0xBC, 0x0F, 0xFF}, color.RGBA{0x0F, 0x38, 0x0F, 0xFF}},
	{"amber", color.RGBA{0xFF, 0xB0, 0x00, 0xFF}, color.RGBA{0x20, 0x14, 0x00, 0xFF}},
	{"blue", color.RGBA{0x8C, 0xC8, 0xFF, 0xFF}, color.RGBA{0x0A, 0x1E, 0x3C, 0xFF}},
	{"sepia", color.RGBA{0xF0, 0xDC, 0xB4, 0xFF}, color.RGBA{0x3C, 0x28, 0x14, 0xFF}},
	{"red", color.RGBA{0xFF, 0x50, 0x3C, 0xFF}, color.RGBA{0x28, 0x08, 0x08, 0xFF}},
}

// PaletteByName looks up a built-in palette, ignoring case.
func PaletteByName(name string) (Palette, bool) {
	for _, p := range Palettes {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Palette{}, false
}

// titlePalettes maps well known program titles to a palette name.
var titlePalettes = map[string]string{
	"PONG":     "green",
	"PONG2":    "green",
	"TETRIS":   "blue",
	"BRIX":     "amber",
	"BREAKOUT": "amber",
	"INVADERS": "red",
	"UFO":      "red",
	"MAZE":     "sepia",
	"TANK":     "sepia",
}

type containsRule struct {
	substr  string
	palette string
}

// titleContains applies broader substring matches for program families.
var titleContains = []containsRule{
	{"PONG", "green"},
	{"INVADER", "red"},
	{"BLINKY", "blue"},
	{"MAZE", "sepia"},
}

// AutoPalette picks a palette for a program from its title, falling back
// to a stable choice derived from the image checksum.
func AutoPalette(title string, crc uint32) Palette {
	t := strings.ToUpper(strings.TrimSpace(title))
	if name, ok := titlePalettes[t]; ok {
		p, _ := PaletteByName(name)
		return p
	}
	for _, r := range titleContains {
		if strings.Contains(t, r.substr) {
			p, _ := PaletteByName(r.palette)
			return p
		}
	}
	return Palettes[crc%uint32(len(Palettes))]
}
