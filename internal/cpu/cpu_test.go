package cpu

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rng"
)

type fakeKeys struct {
	down     [16]bool
	released []uint8
}

func (k *fakeKeys) IsPressed(code uint8) bool { return code < 16 && k.down[code] }

func (k *fakeKeys) Released() (uint8, bool) {
	if len(k.released) == 0 {
		return 0, false
	}
	key := k.released[0]
	k.released = k.released[1:]
	return key, true
}

type fakeTone struct{ starts, stops int }

func (t *fakeTone) StartTone() { t.starts++ }
func (t *fakeTone) StopTone() { t.stops++ }

func newCPU(t *testing.T, code []byte, opts Options) *CPU {
	t.Helper()
	b := bus.New()
	if err := b.Load(code); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.Rand == nil {
		opts.Rand = rng.New(1)
	}
	return New(b, display.New(), opts)
}

func step(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestCPU_LoadImmediateAndPC(t *testing.T) {
	c := newCPU(t, []byte{0x60, 0x0A}, Options{}) // LD V0,0A
	step(t, c, 1)
	if c.V[0] != 0x0A {
		t.Fatalf("V0 got %02x want 0a", c.V[0])
	}
	if c.PC != 0x202 {
		t.Fatalf("PC got %#04x want 0x0202", c.PC)
	}
}

func TestCPU_AddImmediateWrapsForAllValues(t *testing.T) {
	c := newCPU(t, []byte{0x71, 0x00}, Options{})
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			if err := c.bus.Write(0x201, byte(b)); err != nil {
				t.Fatalf("write: %v", err)
			}
			c.PC, c.V[1], c.V[0xF] = 0x200, byte(a), 0x5A
			step(t, c, 1)
			if want := byte((a + b) % 256); c.V[1] != want {
				t.Fatalf("%02x+%02x: V1 got %02x want %02x", a, b, c.V[1], want)
			}
			if c.V[0xF] != 0x5A {
				t.Fatalf("%02x+%02x: VF changed to %02x", a, b, c.V[0xF])
			}
		}
	}
}

func TestCPU_AddImmediateWrapsWithoutFlag(t *testing.T) {
	c := newCPU(t, []byte{0x61, 0xFF, 0x6F, 0x07, 0x71, 0x02}, Options{})
	step(t, c, 3)
	if c.V[1] != 0x01 {
		t.Fatalf("V1 got %02x want 01", c.V[1])
	}
	if c.V[0xF] != 0x07 {
		t.Fatalf("VF changed by 7XNN: got %02x want 07", c.V[0xF])
	}
}

func TestCPU_ALUFlags(t *testing.T) {
	tests := []struct {
		name     string
		op       byte // low nibble of 8XYN
		vx, vy   byte
		want, vf byte
	}{
		{"add carry", 0x4, 0xFF, 0x01, 0x00, 1},
		{"add", 0x4, 0x10, 0x20, 0x30, 0},
		{"sub no borrow", 0x5, 0x05, 0x03, 0x02, 1},
		{"sub borrow", 0x5, 0x03, 0x05, 0xFE, 0},
		{"sub equal", 0x5, 0x04, 0x04, 0x00, 1},
		{"subn no borrow", 0x7, 0x03, 0x05, 0x02, 1},
		{"subn borrow", 0x7, 0x05, 0x03, 0xFE, 0},
		{"or", 0x1, 0xF0, 0x0F, 0xFF, 0},
		{"and", 0x2, 0xF3, 0x3F, 0x33, 0},
		{"xor", 0x3, 0xFF, 0x0F, 0xF0, 0},
		{"shr", 0x6, 0x05, 0x00, 0x02, 1},
		{"shl", 0xE, 0x81, 0x00, 0x02, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCPU(t, []byte{0x81, 0x20 | tt.op}, Options{})
			c.V[1], c.V[2], c.V[0xF] = tt.vx, tt.vy, 0x55
			step(t, c, 1)
			if c.V[1] != tt.want {
				t.Fatalf("V1 got %02x want %02x", c.V[1], tt.want)
			}
			if c.V[0xF] != tt.vf {
				t.Fatalf("VF got %02x want %02x", c.V[0xF], tt.vf)
			}
		})
	}
}

func TestCPU_FlagWinsWhenTargetIsVF(t *testing.T) {
	c := newCPU(t, []byte{0x8F, 0x14}, Options{}) // ADD VF,V1
	c.V[0xF], c.V[1] = 0xFF, 0x02
	step(t, c, 1)
	if c.V[0xF] != 1 {
		t.Fatalf("VF got %02x want 01", c.V[0xF])
	}
}

func TestCPU_LogicOpsResetVFAsTarget(t *testing.T) {
	for _, low := range []byte{0x1, 0x2, 0x3} {
		c := newCPU(t, []byte{0x8F, 0x10 | low}, Options{}) // OR/AND/XOR VF,V1
		c.V[0xF], c.V[1] = 0xF0, 0x0F
		step(t, c, 1)
		if c.V[0xF] != 0 {
			t.Fatalf("8F1%X: VF got %02x want 00", low, c.V[0xF])
		}
	}
}

func TestCPU_ShiftModes(t *testing.T) {
	c := newCPU(t, []byte{0x81, 0x26}, Options{Legacy: true}) // SHR V1,V2
	c.V[1], c.V[2] = 0x00, 0x03
	step(t, c, 1)
	if c.V[1] != 0x01 || c.V[0xF] != 1 {
		t.Fatalf("legacy SHR got V1=%02x VF=%02x want 01/01", c.V[1], c.V[0xF])
	}

	c = newCPU(t, []byte{0x81, 0x26}, Options{})
	c.V[1], c.V[2] = 0x04, 0x03
	step(t, c, 1)
	if c.V[1] != 0x02 || c.V[0xF] != 0 {
		t.Fatalf("modern SHR got V1=%02x VF=%02x want 02/00", c.V[1], c.V[0xF])
	}

	c = newCPU(t, []byte{0x81, 0x2E}, Options{Legacy: true}) // SHL V1,V2
	c.V[1], c.V[2] = 0x01, 0x80
	step(t, c, 1)
	if c.V[1] != 0x00 || c.V[0xF] != 1 {
		t.Fatalf("legacy SHL got V1=%02x VF=%02x want 00/01", c.V[1], c.V[0xF])
	}
}

func TestCPU_Skips(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		v1   byte
		v2   byte
		skip bool
	}{
		{"SE imm taken", []byte{0x31, 0x42}, 0x42, 0, true},
		{"SE imm not taken", []byte{0x31, 0x42}, 0x41, 0, false},
		{"SNE imm taken", []byte{0x41, 0x42}, 0x41, 0, true},
		{"SE reg taken", []byte{0x51, 0x20}, 7, 7, true},
		{"SNE reg taken", []byte{0x91, 0x20}, 7, 8, true},
		{"SNE reg not taken", []byte{0x91, 0x20}, 7, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCPU(t, tt.code, Options{})
			c.V[1], c.V[2] = tt.v1, tt.v2
			step(t, c, 1)
			want := uint16(0x202)
			if tt.skip {
				want = 0x204
			}
			if c.PC != want {
				t.Fatalf("PC got %#04x want %#04x", c.PC, want)
			}
		})
	}
}

func TestCPU_CallAndReturn(t *testing.T) {
	code := make([]byte, 0x60)
	copy(code, []byte{0x22, 0x58})       // 200: CALL 258
	copy(code[0x58:], []byte{0x00, 0xEE}) // 258: RET
	c := newCPU(t, code, Options{})
	step(t, c, 1)
	if c.PC != 0x258 {
		t.Fatalf("PC after CALL got %#04x want 0x0258", c.PC)
	}
	if got := c.Stack.Entries(); len(got) != 1 || got[0] != 0x202 {
		t.Fatalf("stack got %v want [0x202]", got)
	}
	step(t, c, 1)
	if c.PC != 0x202 || c.Stack.Len() != 0 {
		t.Fatalf("after RET PC=%#04x depth=%d want 0x0202/0", c.PC, c.Stack.Len())
	}
}

func TestCPU_StackOverflowFaults(t *testing.T) {
	c := newCPU(t, []byte{0x22, 0x00}, Options{}) // CALL 200 forever
	step(t, c, StackDepth)
	err := c.Step()
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("got %v want stack overflow", err)
	}
	var f *Fault
	if !errors.As(err, &f) || f.PC != 0x200 || f.Opcode != 0x2200 {
		t.Fatalf("fault got %#v", err)
	}
	if !c.Halted() || c.Step() != err {
		t.Fatalf("CPU should stay halted with the same fault")
	}
	if c.PC != 0x200 || c.Stack.Len() != StackDepth {
		t.Fatalf("after overflow PC=%#04x depth=%d want 0x0200/%d", c.PC, c.Stack.Len(), StackDepth)
	}
}

func TestCPU_CallToInvalidTargetLeavesStack(t *testing.T) {
	c := newCPU(t, []byte{0x20, 0x10}, Options{}) // CALL 010
	if err := c.Step(); !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("got %v want invalid jump", err)
	}
	if c.PC != 0x200 || c.Stack.Len() != 0 {
		t.Fatalf("PC=%#04x depth=%d want 0x0200/0", c.PC, c.Stack.Len())
	}
}

func TestCPU_ReturnOnEmptyStackFaults(t *testing.T) {
	c := newCPU(t, []byte{0x00, 0xEE}, Options{})
	if err := c.Step(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("got %v want stack underflow", err)
	}
}

func TestCPU_UnknownOpcodes(t *testing.T) {
	for _, code := range [][]byte{
		{0x01, 0x23}, {0x51, 0x21}, {0x81, 0x28}, {0x81, 0x2F},
		{0x92, 0x31}, {0xE1, 0x00}, {0xF1, 0x99},
	} {
		c := newCPU(t, code, Options{})
		err := c.Step()
		if !errors.Is(err, ErrUnknownOpcode) {
			t.Fatalf("%02x%02x: got %v want unknown opcode", code[0], code[1], err)
		}
		var f *Fault
		if !errors.As(err, &f) || uint16(f.Opcode) != uint16(code[0])<<8|uint16(code[1]) {
			t.Fatalf("%02x%02x: fault does not carry the opcode: %v", code[0], code[1], err)
		}
	}
}

func TestCPU_InvalidJumpTargets(t *testing.T) {
	for _, code := range [][]byte{{0x11, 0xFF}, {0x20, 0x10}} {
		c := newCPU(t, code, Options{})
		if err := c.Step(); !errors.Is(err, ErrInvalidJump) {
			t.Fatalf("%02x%02x: got %v want invalid jump", code[0], code[1], err)
		}
	}
	c := newCPU(t, []byte{0xBF, 0xFF}, Options{}) // JP V0,FFF
	c.V[0] = 1
	if err := c.Step(); !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("BNNN past memory: got %v want invalid jump", err)
	}
	c = newCPU(t, []byte{0xB3, 0x00}, Options{})
	c.V[0] = 0x10
	step(t, c, 1)
	if c.PC != 0x310 {
		t.Fatalf("BNNN PC got %#04x want 0x0310", c.PC)
	}
}

func TestCPU_FetchPastMemoryFaults(t *testing.T) {
	c := newCPU(t, nil, Options{})
	c.PC = 0xFFF
	err := c.Step()
	var f *Fault
	if !errors.As(err, &f) || !f.Fetch || !errors.Is(err, bus.ErrAddressOutOfRange) {
		t.Fatalf("got %v want fetch fault", err)
	}
}

func TestCPU_Timers(t *testing.T) {
	tone := &fakeTone{}
	c := newCPU(t, []byte{0x60, 0x02, 0xF0, 0x15, 0xF0, 0x18}, Options{Tone: tone})
	step(t, c, 3)
	if c.DT != 2 || c.ST != 2 || tone.starts != 1 {
		t.Fatalf("DT=%d ST=%d starts=%d want 2/2/1", c.DT, c.ST, tone.starts)
	}
	c.TickTimers()
	if tone.stops != 0 {
		t.Fatalf("tone stopped early")
	}
	c.TickTimers()
	c.TickTimers()
	if c.DT != 0 || c.ST != 0 {
		t.Fatalf("timers did not floor at zero: DT=%d ST=%d", c.DT, c.ST)
	}
	if tone.stops != 1 {
		t.Fatalf("stops got %d want 1", tone.stops)
	}
}

func TestCPU_DelayTimerRead(t *testing.T) {
	c := newCPU(t, []byte{0xF3, 0x07}, Options{})
	c.DT = 0x2A
	step(t, c, 1)
	if c.V[3] != 0x2A {
		t.Fatalf("V3 got %02x want 2a", c.V[3])
	}
}

func TestCPU_RandomMasked(t *testing.T) {
	c := newCPU(t, []byte{0xC4, 0x0F}, Options{Rand: rng.New(1)})
	step(t, c, 1)
	want := rng.New(1).NextByte() & 0x0F
	if c.V[4] != want {
		t.Fatalf("V4 got %02x want %02x", c.V[4], want)
	}
}

func TestCPU_StoreAndLoadRegisters(t *testing.T) {
	for _, legacy := range []bool{false, true} {
		// LD I,300; LD [I],V3; LD I,300; LD V3,[I]
		c := newCPU(t, []byte{0xA3, 0x00, 0xF3, 0x55, 0xA3, 0x00, 0xF3, 0x65}, Options{Legacy: legacy})
		c.V = [16]byte{1, 2, 3, 4, 5}
		step(t, c, 2)
		mem, _ := c.Bus().Slice(0x300, 5)
		if mem[0] != 1 || mem[3] != 4 || mem[4] != 0 {
			t.Fatalf("legacy=%v memory got % x", legacy, mem)
		}
		wantI := uint16(0x300)
		if legacy {
			wantI = 0x304
		}
		if c.I != wantI {
			t.Fatalf("legacy=%v I after FX55 got %#04x want %#04x", legacy, c.I, wantI)
		}
		c.V = [16]byte{}
		step(t, c, 2)
		if c.V[0] != 1 || c.V[3] != 4 || c.V[4] != 0 {
			t.Fatalf("legacy=%v V got % x", legacy, c.V[:5])
		}
	}
}

func TestCPU_StorePastMemoryFaults(t *testing.T) {
	c := newCPU(t, []byte{0xAF, 0xFE, 0xF3, 0x55}, Options{})
	step(t, c, 1)
	if err := c.Step(); !errors.Is(err, bus.ErrAddressOutOfRange) {
		t.Fatalf("got %v want out of range", err)
	}
	if b, _ := c.Bus().Read(0xFFE); b != 0 {
		t.Fatalf("partial write at 0xffe: %02x", b)
	}
}

func TestCPU_BCD(t *testing.T) {
	c := newCPU(t, []byte{0x65, 0xEA, 0xA3, 0x00, 0xF5, 0x33}, Options{}) // V5=234
	step(t, c, 3)
	got, _ := c.Bus().Slice(0x300, 3)
	if got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("BCD got % x want 02 03 04", got)
	}
}

func TestCPU_FontGlyph(t *testing.T) {
	c := newCPU(t, []byte{0xF2, 0x29}, Options{})
	c.V[2] = 0xA
	step(t, c, 1)
	if c.I != 50 {
		t.Fatalf("I got %d want 50", c.I)
	}
	c = newCPU(t, []byte{0xF2, 0x29}, Options{})
	c.V[2] = 0x10
	if err := c.Step(); !errors.Is(err, ErrFontGlyph) {
		t.Fatalf("got %v want font glyph error", err)
	}
}

func TestCPU_AddIndexWraps(t *testing.T) {
	c := newCPU(t, []byte{0xF1, 0x1E}, Options{})
	c.I, c.V[1], c.V[0xF] = 0xFFFF, 2, 9
	step(t, c, 1)
	if c.I != 1 || c.V[0xF] != 9 {
		t.Fatalf("I=%#04x VF=%d want 0x0001/9", c.I, c.V[0xF])
	}
}

func TestCPU_DrawAndCollision(t *testing.T) {
	// LD V0,0; LD F,V0; DRW V0,V0,5 twice
	c := newCPU(t, []byte{0x60, 0x00, 0xF0, 0x29, 0xD0, 0x05, 0xD0, 0x05}, Options{})
	step(t, c, 3)
	if c.V[0xF] != 0 || c.Screen().Lit() != 14 {
		t.Fatalf("first draw VF=%d lit=%d want 0/14", c.V[0xF], c.Screen().Lit())
	}
	step(t, c, 1)
	if c.V[0xF] != 1 || c.Screen().Lit() != 0 {
		t.Fatalf("second draw VF=%d lit=%d want 1/0", c.V[0xF], c.Screen().Lit())
	}
}

func TestCPU_DrawClippedRowsNotRead(t *testing.T) {
	c := newCPU(t, []byte{0xD0, 0x1F}, Options{}) // 15 rows at y=31
	c.I = 0xFFF
	c.V[1] = 31
	step(t, c, 1)
	if !c.Screen().Dirty() {
		t.Fatalf("draw did not mark the screen dirty")
	}
}

func TestCPU_ClearScreen(t *testing.T) {
	c := newCPU(t, []byte{0xD0, 0x05, 0x00, 0xE0}, Options{})
	step(t, c, 1)
	step(t, c, 1)
	if c.Screen().Lit() != 0 {
		t.Fatalf("lit got %d want 0", c.Screen().Lit())
	}
}

func TestCPU_KeySkips(t *testing.T) {
	keys := &fakeKeys{}
	keys.down[5] = true
	c := newCPU(t, []byte{0xE1, 0x9E}, Options{Keys: keys})
	c.V[1] = 5
	step(t, c, 1)
	if c.PC != 0x204 {
		t.Fatalf("SKP pressed PC got %#04x want 0x0204", c.PC)
	}
	c = newCPU(t, []byte{0xE1, 0xA1}, Options{Keys: keys})
	c.V[1] = 0x25
	step(t, c, 1)
	if c.PC != 0x204 {
		t.Fatalf("SKNP out-of-range key PC got %#04x want 0x0204", c.PC)
	}
}

func TestCPU_WaitForKeyRetries(t *testing.T) {
	keys := &fakeKeys{}
	c := newCPU(t, []byte{0xF4, 0x0A}, Options{Keys: keys})
	step(t, c, 1)
	if c.PC != 0x200 || !c.AwaitingKey() {
		t.Fatalf("PC=%#04x awaiting=%v want 0x0200/true", c.PC, c.AwaitingKey())
	}
	keys.released = []uint8{0xB}
	step(t, c, 1)
	if c.PC != 0x202 || c.AwaitingKey() || c.V[4] != 0xB {
		t.Fatalf("PC=%#04x awaiting=%v V4=%02x want 0x0202/false/0b", c.PC, c.AwaitingKey(), c.V[4])
	}
}

func TestCPU_StateRoundTrip(t *testing.T) {
	tone := &fakeTone{}
	c := newCPU(t, []byte{0x22, 0x04, 0x00, 0x00, 0x6A, 0x11}, Options{Tone: tone})
	step(t, c, 2)
	c.DT, c.ST, c.I = 3, 4, 0x345
	s := c.SaveState()

	d := newCPU(t, nil, Options{Tone: tone})
	if err := d.LoadState(s); err != nil {
		t.Fatalf("load state: %v", err)
	}
	if d.V[0xA] != 0x11 || d.PC != c.PC || d.I != 0x345 || d.DT != 3 || d.ST != 4 {
		t.Fatalf("restored registers differ: %+v", d.SaveState())
	}
	if d.Stack.Len() != 1 || tone.starts != 1 {
		t.Fatalf("depth=%d starts=%d want 1/1", d.Stack.Len(), tone.starts)
	}
	s.Stack = make([]uint16, StackDepth+1)
	if err := d.LoadState(s); err == nil {
		t.Fatalf("expected error for oversized stack")
	}
}

func TestCPU_LoadStateRejectsInvalid(t *testing.T) {
	c := newCPU(t, []byte{0x22, 0x04, 0x00, 0x00, 0x6A, 0x11}, Options{})
	step(t, c, 2)
	good := c.SaveState()

	tests := []struct {
		name  string
		alter func(s *State)
	}{
		{"pc below program", func(s *State) { s.PC = 0x1FE }},
		{"pc at last byte", func(s *State) { s.PC = 0xFFF }},
		{"pc past memory", func(s *State) { s.PC = 0x1000 }},
		{"return below program", func(s *State) { s.Stack = []uint16{0x202, 0x0050} }},
		{"return past memory", func(s *State) { s.Stack = []uint16{0x2000} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good
			s.Stack = append([]uint16(nil), good.Stack...)
			tt.alter(&s)
			if err := c.LoadState(s); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("got %v want invalid state", err)
			}
			if c.PC != good.PC || c.Stack.Len() != len(good.Stack) {
				t.Fatalf("rejected state changed the CPU: PC=%#04x depth=%d", c.PC, c.Stack.Len())
			}
		})
	}
}

func TestOpcode_Fields(t *testing.T) {
	op := Opcode(0xD12F)
	if op.Family() != 0xD || op.X() != 1 || op.Y() != 2 || op.N() != 0xF || op.NN() != 0x2F || op.NNN() != 0x12F {
		t.Fatalf("decode of %s wrong", op)
	}
}
