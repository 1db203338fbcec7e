package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode  = errors.New("unknown opcode")
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
	ErrInvalidJump    = errors.New("jump target outside program memory")
	ErrFontGlyph      = errors.New("font glyph out of range")
	ErrInvalidState   = errors.New("invalid saved state")
)

// Fault is a fatal execution error. It records the address and raw value
// of the instruction that failed. Once a fault occurred the CPU is halted.
type Fault struct {
	PC     uint16
	Opcode Opcode
	Fetch  bool // the instruction itself could not be read
	Err    error
}

func (f *Fault) Error() string {
	if f.Fetch {
		return fmt.Sprintf("fetch at %#04x: %v", f.PC, f.Err)
	}
	return fmt.Sprintf("opcode %s at %#04x: %v", f.Opcode, f.PC, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }
