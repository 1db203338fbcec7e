package cpu

import "fmt"

// Opcode is one 16-bit instruction, big-endian in memory. The top nibble
// selects the instruction family; the other fields depend on the family.
type Opcode uint16

// Family returns the top nibble, the index into the dispatch table.
func (o Opcode) Family() uint8 { return uint8(o >> 12) }

// X returns the register index in bits 8-11.
func (o Opcode) X() int { return int(o>>8) & 0xF }

// Y returns the register index in bits 4-7.
func (o Opcode) Y() int { return int(o>>4) & 0xF }

// N returns the lowest nibble.
func (o Opcode) N() uint8 { return uint8(o) & 0xF }

// NN returns the 8-bit immediate.
func (o Opcode) NN() byte { return byte(o) }

// NNN returns the 12-bit address.
func (o Opcode) NNN() uint16 { return uint16(o) & 0x0FFF }

func (o Opcode) String() string { return fmt.Sprintf("%04X", uint16(o)) }
