package debugger

import (
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

// Entry is one traced instruction with the register state before it ran.
type Entry struct {
	PC     uint16
	Opcode uint16
	I      uint16
	V      [16]byte
}

func (e Entry) String() string {
	return fmt.Sprintf("%04X  %04X  %-18s I=%04X V=% X", e.PC, e.Opcode, Disassemble(e.Opcode), e.I, e.V[:])
}

// Trace keeps the most recent instructions in a ring. When Stream is set
// every entry is also written to it as it is recorded.
type Trace struct {
	Stream io.Writer

	ring []Entry
	next int
	full bool
}

func NewTrace(depth int) *Trace {
	if depth <= 0 {
		depth = 32
	}
	return &Trace{ring: make([]Entry, depth)}
}

func (t *Trace) BeforeStep(c *cpu.CPU) error {
	op, err := c.Peek()
	if err != nil {
		// the step itself reports the fault
		return nil
	}
	e := Entry{PC: c.PC, Opcode: uint16(op), I: c.I, V: c.V}
	t.ring[t.next] = e
	t.next = (t.next + 1) % len(t.ring)
	if t.next == 0 {
		t.full = true
	}
	if t.Stream != nil {
		fmt.Fprintln(t.Stream, e)
	}
	return nil
}

// Entries returns the recorded instructions, oldest first.
func (t *Trace) Entries() []Entry {
	if !t.full {
		return append([]Entry(nil), t.ring[:t.next]...)
	}
	out := make([]Entry, 0, len(t.ring))
	out = append(out, t.ring[t.next:]...)
	return append(out, t.ring[:t.next]...)
}

// Dump writes the recorded instructions, oldest first.
func (t *Trace) Dump(w io.Writer) {
	for _, e := range t.Entries() {
		fmt.Fprintln(w, e)
	}
}
