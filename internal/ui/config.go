package ui

import "github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"

// Config contains window/input/audio related settings.
type Config struct {
	Title         string          // window title
	Scale         int             // integer upscaling factor
	Palette       display.Palette // pixel colours, zero value picks one per program
	Mute          bool            // start with audio muted
	AudioBufferMs int             // player buffer size
	ROMsDir       string          // directory to browse for programs
	Slots         int             // number of save-state slots
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 40
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.Slots <= 0 {
		c.Slots = 4
	}
}
