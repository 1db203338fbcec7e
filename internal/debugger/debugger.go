// Package debugger implements the interactive step-through mode and an
// instruction trace ring. Both observe the CPU through emu.Tracer.
package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

// ErrQuit is returned from BeforeStep when the user aborts the run.
var ErrQuit = errors.New("debugger: quit")

const memSnippet = 16

type Debugger struct {
	// Break stops before the next instruction. It is cleared by continue.
	Break       bool
	Breakpoints []uint16

	in  *bufio.Reader
	out io.Writer
}

// New returns a debugger that stops before the first instruction.
func New(in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		Break: true,
		in:    bufio.NewReader(in),
		out:   out,
	}
}

// BeforeStep prints the machine state and waits for a command when the
// debugger is stopped or PC hits a breakpoint.
func (dbg *Debugger) BeforeStep(c *cpu.CPU) error {
	if !dbg.Break && !dbg.atBreakpoint(c.PC) {
		return nil
	}
	dbg.PrintState(c)

	for {
		fmt.Fprint(dbg.out, "(s)tep (c)ontinue (b)reak addr (m)em addr (q)uit> ")
		line, err := dbg.in.ReadString('\n')
		if err != nil && line == "" {
			// input closed, keep running without stopping
			dbg.Break = false
			fmt.Fprintln(dbg.out)
			return nil
		}
		fields := strings.Fields(line)
		cmd := ""
		if len(fields) > 0 {
			cmd = strings.ToLower(fields[0])
		}

		switch cmd {
		case "", "s", "step":
			dbg.Break = true
			return nil
		case "c", "continue":
			dbg.Break = false
			return nil
		case "q", "quit":
			return ErrQuit
		case "b", "break":
			addr, ok := dbg.parseAddr(fields)
			if ok {
				dbg.Breakpoints = append(dbg.Breakpoints, addr)
				fmt.Fprintf(dbg.out, "breakpoint at %#04x\n", addr)
			}
		case "m", "mem":
			addr, ok := dbg.parseAddr(fields)
			if ok {
				dbg.PrintMem(c.Bus(), addr, 32)
			}
		default:
			fmt.Fprintf(dbg.out, "unknown command %q\n", cmd)
		}
	}
}

func (dbg *Debugger) atBreakpoint(pc uint16) bool {
	for _, addr := range dbg.Breakpoints {
		if addr == pc {
			return true
		}
	}
	return false
}

func (dbg *Debugger) parseAddr(fields []string) (uint16, bool) {
	if len(fields) < 2 {
		fmt.Fprintln(dbg.out, "missing address")
		return 0, false
	}
	s := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(fields[1]), "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil || int(v) >= bus.MemorySize {
		fmt.Fprintf(dbg.out, "invalid address %q\n", fields[1])
		return 0, false
	}
	return uint16(v), true
}

// PrintState dumps the next instruction, registers, timers, stack and the
// memory following PC.
func (dbg *Debugger) PrintState(c *cpu.CPU) {
	if op, err := c.Peek(); err == nil {
		fmt.Fprintf(dbg.out, "PC %#04x  %s  %s\n", c.PC, op, Disassemble(uint16(op)))
	} else {
		fmt.Fprintf(dbg.out, "PC %#04x  <%v>\n", c.PC, err)
	}

	fmt.Fprintf(dbg.out, "I  %#04x", c.I)
	if int(c.I) < bus.FontSize {
		fmt.Fprintf(dbg.out, " (glyph %X)", int(c.I)/bus.GlyphSize)
	}
	fmt.Fprintf(dbg.out, "  DT %02x  ST %02x\n", c.DT, c.ST)

	for i, v := range c.V {
		fmt.Fprintf(dbg.out, "V%X %02x", i, v)
		if i%8 == 7 {
			fmt.Fprintln(dbg.out)
		} else {
			fmt.Fprint(dbg.out, "  ")
		}
	}

	fmt.Fprint(dbg.out, "Stack")
	for _, addr := range c.Stack.Entries() {
		fmt.Fprintf(dbg.out, " %#04x", addr)
	}
	fmt.Fprintln(dbg.out)

	dbg.PrintMem(c.Bus(), c.PC, memSnippet)
}

// PrintMem prints count bytes starting at addr, eight per line, stopping at
// the end of memory.
func (dbg *Debugger) PrintMem(b *bus.Bus, addr uint16, count int) {
	if int(addr)+count > bus.MemorySize {
		count = bus.MemorySize - int(addr)
	}
	data, err := b.Slice(addr, count)
	if err != nil {
		fmt.Fprintln(dbg.out, err)
		return
	}
	for i, v := range data {
		if i%8 == 0 {
			if i > 0 {
				fmt.Fprintln(dbg.out)
			}
			fmt.Fprintf(dbg.out, "[%#04x]", int(addr)+i)
		}
		fmt.Fprintf(dbg.out, " %02x", v)
	}
	fmt.Fprintln(dbg.out)
}
