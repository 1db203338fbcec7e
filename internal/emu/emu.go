package emu

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rng"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/retroenv/retrogolib/log"
)

var ErrNoProgram = errors.New("no program loaded")

// Display renders the frame buffer. It is called at most once per frame
// and only when the buffer changed.
type Display interface {
	Render(s *display.Screen) error
}

// Input feeds key presses into the keypad once per frame. Returning true
// requests a clean stop after the current frame.
type Input interface {
	Poll(kp *keypad.Keypad) (quit bool)
}

// Tracer observes the CPU before every instruction. A returned error stops
// the frame and is passed up to the caller unchanged.
type Tracer interface {
	BeforeStep(c *cpu.CPU) error
}

type Machine struct {
	cfg    Config
	logger *log.Logger

	// core components
	bus    *bus.Bus
	screen *display.Screen
	keys   *keypad.Keypad
	rand   *rng.Xorshift
	cpu    *cpu.CPU
	tone   toneSwitch

	display Display
	input   Input
	tracers []Tracer

	image  *rom.Image
	frames uint64
	quit   bool
}

// New creates a machine with empty memory. A program must be loaded
// before frames can be stepped.
func New(cfg Config, logger *log.Logger) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg:    cfg,
		logger: logger,
		bus:    bus.New(),
		screen: display.New(),
		keys:   keypad.New(),
	}
	if cfg.Seed != 0 {
		m.rand = rng.New(byte(cfg.Seed))
	} else {
		m.rand = rng.NewFromTime()
	}
	m.cpu = cpu.New(m.bus, m.screen, cpu.Options{
		Legacy: cfg.Legacy,
		Keys:   m.keys,
		Rand:   m.rand,
		Tone:   &m.tone,
	})
	return m
}

// LoadProgram validates and installs a program image from memory.
func (m *Machine) LoadProgram(data []byte) error {
	img, err := rom.Parse(data)
	if err != nil {
		return err
	}
	return m.load(img)
}

// LoadProgramFromFile replaces the current program with one from disk.
func (m *Machine) LoadProgramFromFile(path string) error {
	img, err := rom.Load(path)
	if err != nil {
		return err
	}
	return m.load(img)
}

func (m *Machine) load(img *rom.Image) error {
	m.bus.Reset()
	if err := m.bus.Load(img.Data); err != nil {
		return err
	}
	m.screen.Clear()
	m.keys.Reset()
	m.cpu.Reset()
	m.tone.StopTone()
	m.frames = 0
	m.quit = false
	m.image = img

	if m.logger != nil {
		m.logger.Info("Program loaded",
			log.String("program", img.String()),
			log.String("mode", m.Mode()))
		if img.Odd() {
			m.logger.Warn("Program has an odd length, last byte is not a full instruction")
		}
	}
	return nil
}

// Reset reloads the current program and clears all machine state.
func (m *Machine) Reset() error {
	if m.image == nil {
		return ErrNoProgram
	}
	return m.load(m.image)
}

func (m *Machine) SetDisplay(d Display) { m.display = d }

func (m *Machine) SetInput(in Input) { m.input = in }

// SetTone connects the beeper. A tone already requested by the program is
// forwarded immediately.
func (m *Machine) SetTone(t cpu.Tone) {
	m.tone.t = t
	if t != nil && m.tone.on {
		t.StartTone()
	}
}

// SetTracer replaces the set of per-instruction observers.
func (m *Machine) SetTracer(t ...Tracer) { m.tracers = t }

func (m *Machine) CPU() *cpu.CPU { return m.cpu }

func (m *Machine) Screen() *display.Screen { return m.screen }

func (m *Machine) Keypad() *keypad.Keypad { return m.keys }

// Image returns the loaded program or nil.
func (m *Machine) Image() *rom.Image { return m.image }

// Frames returns the number of frames stepped since the last load.
func (m *Machine) Frames() uint64 { return m.frames }

// QuitRequested reports whether the input asked to stop.
func (m *Machine) QuitRequested() bool { return m.quit }

func (m *Machine) Config() Config { return m.cfg }

// Mode names the instruction semantics in use.
func (m *Machine) Mode() string { return modeName(m.cfg.Legacy) }

// Framebuffer returns the frame buffer as RGBA bytes, 64x32x4.
func (m *Machine) Framebuffer() []byte {
	fb := make([]byte, display.Width*display.Height*4)
	m.screen.WriteRGBA(fb, display.On, display.Off)
	return fb
}

// StepFrame advances the machine by one frame: poll input and advance the
// keypad, run the instruction quota, tick the timers and flush the screen
// if it changed. Pacing is left to the caller.
func (m *Machine) StepFrame() error {
	if m.image == nil {
		return ErrNoProgram
	}
	if m.input != nil && m.input.Poll(m.keys) {
		m.quit = true
	}
	m.keys.Cycle()

	for i := 0; i < m.cfg.InstructionsPerFrame; i++ {
		for _, t := range m.tracers {
			if err := t.BeforeStep(m.cpu); err != nil {
				return err
			}
		}
		if err := m.cpu.Step(); err != nil {
			m.logFault(err)
			return err
		}
		// the same FX0A would run again, the key can only arrive next frame
		if m.cpu.AwaitingKey() {
			break
		}
	}
	m.cpu.TickTimers()
	m.frames++

	if m.screen.Dirty() && m.display != nil {
		if err := m.display.Render(m.screen); err != nil {
			return fmt.Errorf("rendering frame %d: %w", m.frames, err)
		}
	}
	m.screen.MarkClean()
	return nil
}

func (m *Machine) logFault(err error) {
	if m.logger == nil {
		return
	}
	var f *cpu.Fault
	if errors.As(err, &f) {
		m.logger.Error("CPU fault",
			log.Hex("pc", f.PC),
			log.Hex("opcode", uint16(f.Opcode)),
			log.Err(f.Err))
		return
	}
	m.logger.Error("CPU fault", log.Err(err))
}

// toneSwitch forwards tone commands to the current beeper, which may be
// attached after the CPU was created.
type toneSwitch struct {
	t  cpu.Tone
	on bool
}

func (s *toneSwitch) StartTone() {
	s.on = true
	if s.t != nil {
		s.t.StartTone()
	}
}

func (s *toneSwitch) StopTone() {
	s.on = false
	if s.t != nil {
		s.t.StopTone()
	}
}
