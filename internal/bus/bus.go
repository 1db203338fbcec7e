package bus

import (
	"errors"
	"fmt"
)

const (
	MemorySize   = 0x1000 // 4 KB address space
	FontStart    = 0x0000
	ProgramStart = 0x0200 // first 512 bytes are reserved for the interpreter

	// MaxProgramSize is the largest program image that fits above ProgramStart.
	MaxProgramSize = MemorySize - ProgramStart
)

var (
	ErrAddressOutOfRange = errors.New("memory address out of range")
	ErrProgramTooLarge   = errors.New("program image too large")
)

// Bus is the flat 4 KB memory of the machine. The font table lives at
// FontStart and the loaded program at ProgramStart. Every access is bounds
// checked since the addresses come from arbitrary programs.
type Bus struct {
	mem [MemorySize]byte
}

// New returns zeroed memory with the font table installed.
func New() *Bus {
	b := &Bus{}
	b.Reset()
	return b
}

// Reset zero-fills memory and reinstalls the font table.
func (b *Bus) Reset() {
	b.mem = [MemorySize]byte{}
	copy(b.mem[FontStart:], font[:])
}

// Load copies a program image to ProgramStart.
func (b *Bus) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	copy(b.mem[ProgramStart:], program)
	return nil
}

func (b *Bus) Read(addr uint16) (byte, error) {
	if int(addr) >= MemorySize {
		return 0, rangeError(addr, 1)
	}
	return b.mem[addr], nil
}

func (b *Bus) Write(addr uint16, value byte) error {
	if int(addr) >= MemorySize {
		return rangeError(addr, 1)
	}
	b.mem[addr] = value
	return nil
}

// Read16 reads a big-endian word, the encoding of every instruction.
func (b *Bus) Read16(addr uint16) (uint16, error) {
	if int(addr)+2 > MemorySize {
		return 0, rangeError(addr, 2)
	}
	return uint16(b.mem[addr])<<8 | uint16(b.mem[addr+1]), nil
}

// Slice returns the n bytes starting at addr. The returned slice aliases
// memory and is only valid until the next write.
func (b *Bus) Slice(addr uint16, n int) ([]byte, error) {
	if n < 0 || int(addr)+n > MemorySize {
		return nil, rangeError(addr, n)
	}
	return b.mem[int(addr) : int(addr)+n], nil
}

// WriteRange copies data to memory starting at addr. Nothing is written
// unless the whole range fits.
func (b *Bus) WriteRange(addr uint16, data []byte) error {
	if int(addr)+len(data) > MemorySize {
		return rangeError(addr, len(data))
	}
	copy(b.mem[addr:], data)
	return nil
}

// SaveState returns a copy of the whole address space.
func (b *Bus) SaveState() []byte {
	out := make([]byte, MemorySize)
	copy(out, b.mem[:])
	return out
}

func (b *Bus) LoadState(data []byte) error {
	if len(data) != MemorySize {
		return fmt.Errorf("memory state has %d bytes, want %d", len(data), MemorySize)
	}
	copy(b.mem[:], data)
	return nil
}

func rangeError(addr uint16, n int) error {
	return fmt.Errorf("%w: %d byte(s) at %#04x", ErrAddressOutOfRange, n, addr)
}
