package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

// handlers is indexed by the top nibble of the opcode.
var handlers = [16]func(*CPU, Opcode) error{
	(*CPU).op0, (*CPU).op1, (*CPU).op2, (*CPU).op3,
	(*CPU).op4, (*CPU).op5, (*CPU).op6, (*CPU).op7,
	(*CPU).op8, (*CPU).op9, (*CPU).opA, (*CPU).opB,
	(*CPU).opC, (*CPU).opD, (*CPU).opE, (*CPU).opF,
}

// alu is indexed by the low nibble of 8XYN. Nil entries are undefined.
var alu = [16]func(c *CPU, x, y int){
	0x0: func(c *CPU, x, y int) { c.V[x] = c.V[y] },
	0x1: func(c *CPU, x, y int) {
		c.V[x] |= c.V[y]
		c.V[0xF] = 0
	},
	0x2: func(c *CPU, x, y int) {
		c.V[x] &= c.V[y]
		c.V[0xF] = 0
	},
	0x3: func(c *CPU, x, y int) {
		c.V[x] ^= c.V[y]
		c.V[0xF] = 0
	},
	0x4: func(c *CPU, x, y int) {
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[0xF] = flag(sum > 0xFF)
	},
	0x5: func(c *CPU, x, y int) {
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[0xF] = flag(vx >= vy)
	},
	0x6: func(c *CPU, x, y int) {
		src := c.V[x]
		if c.legacy {
			src = c.V[y]
		}
		c.V[x] = src >> 1
		c.V[0xF] = src & 1
	},
	0x7: func(c *CPU, x, y int) {
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[0xF] = flag(vy >= vx)
	},
	0xE: func(c *CPU, x, y int) {
		src := c.V[x]
		if c.legacy {
			src = c.V[y]
		}
		c.V[x] = src << 1
		c.V[0xF] = src >> 7
	},
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func unknown(op Opcode) error {
	return fmt.Errorf("%w %s", ErrUnknownOpcode, op)
}

func (c *CPU) op0(op Opcode) error {
	switch op {
	case 0x00E0:
		c.screen.Clear()
		return nil
	case 0x00EE:
		addr, err := c.Stack.Pop()
		if err != nil {
			return err
		}
		c.PC = addr
		return nil
	}
	return unknown(op)
}

// 1NNN
func (c *CPU) op1(op Opcode) error { return c.jump(op.NNN()) }

// 2NNN
func (c *CPU) op2(op Opcode) error {
	if err := c.Stack.Push(c.PC); err != nil {
		return err
	}
	if err := c.jump(op.NNN()); err != nil {
		_, _ = c.Stack.Pop()
		return err
	}
	return nil
}

// 3XNN
func (c *CPU) op3(op Opcode) error {
	c.skipIf(c.V[op.X()] == op.NN())
	return nil
}

// 4XNN
func (c *CPU) op4(op Opcode) error {
	c.skipIf(c.V[op.X()] != op.NN())
	return nil
}

// 5XY0
func (c *CPU) op5(op Opcode) error {
	if op.N() != 0 {
		return unknown(op)
	}
	c.skipIf(c.V[op.X()] == c.V[op.Y()])
	return nil
}

// 6XNN
func (c *CPU) op6(op Opcode) error {
	c.V[op.X()] = op.NN()
	return nil
}

// 7XNN, no flag change.
func (c *CPU) op7(op Opcode) error {
	c.V[op.X()] += op.NN()
	return nil
}

func (c *CPU) op8(op Opcode) error {
	fn := alu[op.N()]
	if fn == nil {
		return unknown(op)
	}
	fn(c, op.X(), op.Y())
	return nil
}

// 9XY0
func (c *CPU) op9(op Opcode) error {
	if op.N() != 0 {
		return unknown(op)
	}
	c.skipIf(c.V[op.X()] != c.V[op.Y()])
	return nil
}

// ANNN
func (c *CPU) opA(op Opcode) error {
	c.I = op.NNN()
	return nil
}

// BNNN
func (c *CPU) opB(op Opcode) error {
	return c.jump(op.NNN() + uint16(c.V[0]))
}

// CXNN
func (c *CPU) opC(op Opcode) error {
	c.V[op.X()] = c.rand.NextByte() & op.NN()
	return nil
}

// DXYN reads only the sprite rows that land on screen.
func (c *CPU) opD(op Opcode) error {
	x, y := c.V[op.X()], c.V[op.Y()]
	rows, err := c.bus.Slice(c.I, display.VisibleRows(y, int(op.N())))
	if err != nil {
		return err
	}
	c.V[0xF] = flag(c.screen.DrawSprite(x, y, rows))
	return nil
}

// EX9E and EXA1. Codes above 0xF are never pressed.
func (c *CPU) opE(op Opcode) error {
	pressed := c.keys.IsPressed(c.V[op.X()])
	switch op.NN() {
	case 0x9E:
		c.skipIf(pressed)
	case 0xA1:
		c.skipIf(!pressed)
	default:
		return unknown(op)
	}
	return nil
}

func (c *CPU) opF(op Opcode) error {
	x := op.X()
	switch op.NN() {
	case 0x07:
		c.V[x] = c.DT
	case 0x0A:
		if key, ok := c.keys.Released(); ok {
			c.V[x] = key
			return nil
		}
		c.PC -= 2
		c.awaitingKey = true
	case 0x15:
		c.DT = c.V[x]
	case 0x18:
		c.ST = c.V[x]
		if c.ST > 0 {
			c.tone.StartTone()
		} else {
			c.tone.StopTone()
		}
	case 0x1E:
		c.I += uint16(c.V[x])
	case 0x29:
		addr, ok := bus.GlyphAddress(c.V[x])
		if !ok {
			return fmt.Errorf("%w: %#02x", ErrFontGlyph, c.V[x])
		}
		c.I = addr
	case 0x33:
		v := c.V[x]
		return c.bus.WriteRange(c.I, []byte{v / 100, v / 10 % 10, v % 10})
	case 0x55:
		if err := c.bus.WriteRange(c.I, c.V[:x+1]); err != nil {
			return err
		}
		if c.legacy {
			c.I += uint16(x + 1)
		}
	case 0x65:
		src, err := c.bus.Slice(c.I, x+1)
		if err != nil {
			return err
		}
		copy(c.V[:x+1], src)
		if c.legacy {
			c.I += uint16(x + 1)
		}
	default:
		return unknown(op)
	}
	return nil
}
