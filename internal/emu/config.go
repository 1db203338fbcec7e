package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	Legacy               bool // COSMAC VIP semantics for 8XY6, 8XYE, FX55, FX65
	InstructionsPerFrame int  // instruction quota per frame
	FrameRate            int  // frames per second, timers tick once per frame
	Seed                 int  // random byte seed, 0 picks one from the clock
	Unthrottled          bool // run frames back to back without sleeping
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.InstructionsPerFrame <= 0 {
		c.InstructionsPerFrame = 10
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 60
	}
}
