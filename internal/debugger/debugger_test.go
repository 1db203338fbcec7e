package debugger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rng"
	"github.com/retroenv/retrogolib/assert"
)

func newCPU(t *testing.T, code []byte) *cpu.CPU {
	t.Helper()
	b := bus.New()
	assert.NoError(t, b.Load(code))
	return cpu.New(b, display.New(), cpu.Options{Rand: rng.New(1)})
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		opcode uint16
		want   string
	}{
		{0x00E0, "cls"},
		{0x00EE, "ret"},
		{0x1234, "jp $234"},
		{0xB234, "jp V0, $234"},
		{0x2234, "call $234"},
		{0x3234, "se V2, $34"},
		{0x9230, "sne V2, V3"},
		{0x6234, "ld V2, $34"},
		{0xA234, "ld I, $234"},
		{0x7234, "add V2, $34"},
		{0x8235, "sub V2, V3"},
		{0x823E, "shl V2"},
		{0xC234, "rnd V2, $34"},
		{0xD235, "drw V2, V3, $5"},
		{0xE2A1, "sknp V2"},
		{0x8238, "DW $8238"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Disassemble(tt.opcode))
	}
}

func TestDebuggerStepAndContinue(t *testing.T) {
	c := newCPU(t, []byte{0x60, 0x0A, 0x61, 0x0B, 0x62, 0x0C})
	var out bytes.Buffer
	dbg := New(strings.NewReader("s\nc\n"), &out)

	assert.NoError(t, dbg.BeforeStep(c))
	assert.True(t, dbg.Break)
	assert.Contains(t, out.String(), "PC 0x200  600A  ld V0, $0A")
	assert.NoError(t, c.Step())

	assert.NoError(t, dbg.BeforeStep(c))
	assert.False(t, dbg.Break)
	assert.NoError(t, c.Step())

	// no further prompt once continued
	out.Reset()
	assert.NoError(t, dbg.BeforeStep(c))
	assert.Empty(t, out.String())
}

func TestDebuggerQuit(t *testing.T) {
	c := newCPU(t, []byte{0x60, 0x0A})
	dbg := New(strings.NewReader("x\nq\n"), &bytes.Buffer{})
	err := dbg.BeforeStep(c)
	assert.True(t, errors.Is(err, ErrQuit))
}

func TestDebuggerEndOfInputContinues(t *testing.T) {
	c := newCPU(t, []byte{0x60, 0x0A})
	dbg := New(strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, dbg.BeforeStep(c))
	assert.False(t, dbg.Break)
}

func TestDebuggerBreakpoint(t *testing.T) {
	c := newCPU(t, []byte{0x60, 0x0A, 0x61, 0x0B, 0x62, 0x0C})
	var out bytes.Buffer
	dbg := New(strings.NewReader("b 204\nm 0x200\nc\nc\n"), &out)
	assert.NoError(t, dbg.BeforeStep(c))
	assert.Equal(t, []uint16{0x204}, dbg.Breakpoints)
	assert.Contains(t, out.String(), "[0x200] 60 0a 61 0b 62 0c 00 00")

	out.Reset()
	assert.NoError(t, c.Step())
	assert.NoError(t, dbg.BeforeStep(c))
	assert.Empty(t, out.String())
	assert.NoError(t, c.Step())
	assert.NoError(t, dbg.BeforeStep(c))
	assert.Contains(t, out.String(), "PC 0x204")
}

func TestPrintStateShowsGlyphAndStack(t *testing.T) {
	c := newCPU(t, []byte{0x22, 0x04, 0x00, 0x00, 0x6A, 0xFF})
	assert.NoError(t, c.Step())
	c.I = 0x0F
	c.V[0xA] = 0x42
	var out bytes.Buffer
	dbg := New(strings.NewReader(""), &out)
	dbg.PrintState(c)
	s := out.String()
	assert.Contains(t, s, "(glyph 3)")
	assert.Contains(t, s, "VA 42")
	assert.Contains(t, s, "Stack 0x202")
}

func TestPrintMemClampsAtEnd(t *testing.T) {
	var out bytes.Buffer
	dbg := New(strings.NewReader(""), &out)
	dbg.PrintMem(bus.New(), 0xFFC, 16)
	assert.Equal(t, "[0xffc] 00 00 00 00\n", out.String())
}

func TestTraceRing(t *testing.T) {
	var program []byte
	for i := 0; i < 5; i++ {
		program = append(program, 0x70, 0x01)
	}
	c := newCPU(t, program)
	tr := NewTrace(3)
	var stream bytes.Buffer
	tr.Stream = &stream
	for i := 0; i < 5; i++ {
		assert.NoError(t, tr.BeforeStep(c))
		assert.NoError(t, c.Step())
	}
	entries := tr.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, uint16(0x204), entries[0].PC)
	assert.Equal(t, uint16(0x208), entries[2].PC)
	assert.Equal(t, byte(4), entries[2].V[0])
	assert.Equal(t, 5, strings.Count(stream.String(), "\n"))

	var dump bytes.Buffer
	tr.Dump(&dump)
	assert.True(t, strings.HasPrefix(dump.String(), "0204  7001  add V0, $01"))
}
