package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rng"
)

// Keys is the view of the keypad the instruction set needs.
type Keys interface {
	IsPressed(code uint8) bool
	// Released reports a key that completed a press and release after the
	// first query of the current wait.
	Released() (uint8, bool)
}

// ByteSource supplies the random bytes consumed by CXNN.
type ByteSource interface {
	NextByte() byte
}

// Tone is the beeper driven by the sound timer.
type Tone interface {
	StartTone()
	StopTone()
}

// Options configures a CPU. Nil collaborators get inert defaults.
type Options struct {
	// Legacy selects the COSMAC VIP behaviour of 8XY6, 8XYE,
	// FX55 and FX65.
	Legacy bool
	Keys   Keys
	Rand   ByteSource
	Tone   Tone
}

// CPU holds the register file and executes one instruction per Step.
type CPU struct {
	V      [16]byte // V0-VF, VF doubles as the flag register
	I      uint16
	PC     uint16
	DT, ST byte

	Stack Stack

	opcode      Opcode
	legacy      bool
	awaitingKey bool
	fault       error

	bus    *bus.Bus
	screen *display.Screen
	keys   Keys
	rand   ByteSource
	tone   Tone
}

// New creates a CPU over memory and screen with PC at the program start.
func New(b *bus.Bus, screen *display.Screen, opts Options) *CPU {
	c := &CPU{
		bus:    b,
		screen: screen,
		legacy: opts.Legacy,
		keys:   opts.Keys,
		rand:   opts.Rand,
		tone:   opts.Tone,
	}
	if c.keys == nil {
		c.keys = noKeys{}
	}
	if c.rand == nil {
		c.rand = rng.NewFromTime()
	}
	if c.tone == nil {
		c.tone = silent{}
	}
	c.Reset()
	return c
}

// Reset clears registers, timers and the stack. Memory and screen are
// owned by the caller and left alone.
func (c *CPU) Reset() {
	c.V = [16]byte{}
	c.I = 0
	c.PC = bus.ProgramStart
	c.DT, c.ST = 0, 0
	c.Stack.Reset()
	c.opcode = 0
	c.awaitingKey = false
	c.fault = nil
}

// Bus exposes the underlying memory for tests/tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

func (c *CPU) Screen() *display.Screen { return c.screen }

func (c *CPU) Legacy() bool { return c.legacy }

// Opcode returns the most recently executed instruction.
func (c *CPU) Opcode() Opcode { return c.opcode }

// AwaitingKey reports whether the last instruction was an FX0A that found
// no released key. PC points at that instruction again.
func (c *CPU) AwaitingKey() bool { return c.awaitingKey }

// Fault returns the error that halted the CPU, or nil.
func (c *CPU) Fault() error { return c.fault }

func (c *CPU) Halted() bool { return c.fault != nil }

// Peek decodes the instruction at PC without executing it.
func (c *CPU) Peek() (Opcode, error) {
	raw, err := c.bus.Read16(c.PC)
	return Opcode(raw), err
}

// Step fetches, decodes and executes one instruction. Any returned error is
// a *Fault and halts the CPU; further calls return the same fault.
func (c *CPU) Step() error {
	if c.fault != nil {
		return c.fault
	}
	pc := c.PC
	raw, err := c.bus.Read16(pc)
	if err != nil {
		return c.halt(&Fault{PC: pc, Fetch: true, Err: err})
	}
	op := Opcode(raw)
	c.opcode = op
	c.awaitingKey = false
	c.PC += 2
	if err := handlers[op.Family()](c, op); err != nil {
		// leave PC on the faulting instruction for state dumps
		c.PC = pc
		return c.halt(&Fault{PC: pc, Opcode: op, Err: err})
	}
	return nil
}

func (c *CPU) halt(f *Fault) error {
	c.fault = f
	return f
}

// TickTimers decrements both timers once, flooring at zero. The tone is
// stopped when the sound timer reaches zero.
func (c *CPU) TickTimers() {
	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
		if c.ST == 0 {
			c.tone.StopTone()
		}
	}
}

func (c *CPU) jump(addr uint16) error {
	if addr < bus.ProgramStart || int(addr) >= bus.MemorySize {
		return fmt.Errorf("%w: %#04x", ErrInvalidJump, addr)
	}
	c.PC = addr
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

// State is the serialisable register file.
type State struct {
	V           [16]byte
	I, PC       uint16
	DT, ST      byte
	Stack       []uint16
	AwaitingKey bool
}

func (c *CPU) SaveState() State {
	return State{
		V:           c.V,
		I:           c.I,
		PC:          c.PC,
		DT:          c.DT,
		ST:          c.ST,
		Stack:       c.Stack.Entries(),
		AwaitingKey: c.awaitingKey,
	}
}

// LoadState restores registers from s and clears any fault.
func (c *CPU) LoadState(s State) error {
	if len(s.Stack) > StackDepth {
		return fmt.Errorf("state holds %d return addresses: %w", len(s.Stack), ErrStackOverflow)
	}
	if !validCodeAddress(s.PC) {
		return fmt.Errorf("state program counter %#04x: %w", s.PC, ErrInvalidState)
	}
	var stack Stack
	for i, addr := range s.Stack {
		if !validCodeAddress(addr) {
			return fmt.Errorf("state return address %d is %#04x: %w", i, addr, ErrInvalidState)
		}
		if err := stack.Push(addr); err != nil {
			return err
		}
	}
	c.V, c.I, c.PC, c.DT, c.ST = s.V, s.I, s.PC, s.DT, s.ST
	c.Stack = stack
	c.awaitingKey = s.AwaitingKey
	c.fault = nil
	if c.ST > 0 {
		c.tone.StartTone()
	} else {
		c.tone.StopTone()
	}
	return nil
}

// validCodeAddress reports whether an instruction can be fetched at addr.
func validCodeAddress(addr uint16) bool {
	return addr >= bus.ProgramStart && int(addr) < bus.MemorySize-1
}

type noKeys struct{}

func (noKeys) IsPressed(uint8) bool { return false }
func (noKeys) Released() (uint8, bool) { return 0, false }

type silent struct{}

func (silent) StartTone() {}
func (silent) StopTone() {}
