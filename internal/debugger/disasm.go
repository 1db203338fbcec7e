package debugger

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Disassemble returns the assembly form of one instruction. Words that
// match no instruction are shown as data.
func Disassemble(opcode uint16) string {
	var ins *chip8.Instruction
	for _, op := range chip8.Opcodes[int(opcode>>12)] {
		if op.Info.Mask&opcode == op.Info.Value {
			ins = op.Instruction
			break
		}
	}
	if ins == nil {
		return fmt.Sprintf("DW $%04X", opcode)
	}
	if params := operands(ins.Name, opcode); params != "" {
		return ins.Name + " " + params
	}
	return ins.Name
}

func operands(name string, opcode uint16) string {
	x := (opcode >> 8) & 0xF
	y := (opcode >> 4) & 0xF
	nn := opcode & 0xFF
	nnn := opcode & 0xFFF

	switch name {
	case chip8.JpInst.Name:
		if opcode&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, $%03X", nnn)
		}
		return fmt.Sprintf("$%03X", nnn)
	case chip8.CallInst.Name:
		return fmt.Sprintf("$%03X", nnn)
	case chip8.SeInst.Name, chip8.SneInst.Name, chip8.AddInst.Name:
		switch opcode & 0xF000 {
		case 0x3000, 0x4000, 0x7000:
			return fmt.Sprintf("V%X, $%02X", x, nn)
		case 0xF000:
			return fmt.Sprintf("I, V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.LdInst.Name:
		return loadOperands(opcode, x, y, nn, nnn)
	case chip8.OrInst.Name, chip8.AndInst.Name, chip8.XorInst.Name, chip8.SubInst.Name, chip8.SubnInst.Name:
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.ShrInst.Name, chip8.ShlInst.Name:
		return fmt.Sprintf("V%X", x)
	case chip8.RndInst.Name:
		return fmt.Sprintf("V%X, $%02X", x, nn)
	case chip8.DrwInst.Name:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, opcode&0xF)
	case chip8.SkpInst.Name, chip8.SknpInst.Name:
		return fmt.Sprintf("V%X", x)
	}
	return ""
}

func loadOperands(opcode, x, y, nn, nnn uint16) string {
	switch opcode & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, nn)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", nnn)
	}
	switch nn {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}
