package keypad

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestKeypad_HoldWindow(t *testing.T) {
	k := New()
	k.Press(0xA)
	assert.False(t, k.IsPressed(0xA), "press applies on the next cycle")

	k.Cycle()
	for i := 0; i < HoldFrames-1; i++ {
		assert.True(t, k.IsPressed(0xA))
		k.Cycle()
	}
	assert.True(t, k.IsPressed(0xA))
	k.Cycle()
	assert.False(t, k.IsPressed(0xA))
}

func TestKeypad_RepeatWhileActiveIgnored(t *testing.T) {
	k := New()
	k.Press(3)
	k.Cycle()
	k.Cycle()
	k.Press(3) // autorepeat while still held
	k.Cycle()
	assert.Equal(t, uint8(HoldFrames-2), k.SaveState().Timers[3])
}

func TestKeypad_InvalidCodes(t *testing.T) {
	k := New()
	k.Press(0x10)
	k.Cycle()
	assert.False(t, k.IsPressed(0x10))
	assert.False(t, k.IsPressed(0xFF))
}

func TestKeypad_ReleasedWaitsForFullCycle(t *testing.T) {
	k := New()

	_, ok := k.Released()
	assert.False(t, ok, "nothing pressed yet")

	k.Press(7)
	k.Cycle()
	_, ok = k.Released() // latches key 7
	assert.False(t, ok)

	for i := 0; i < HoldFrames-1; i++ {
		k.Cycle()
		_, ok = k.Released()
		assert.False(t, ok, "key still held")
	}

	k.Cycle()
	key, ok := k.Released()
	assert.True(t, ok)
	assert.Equal(t, uint8(7), key)

	_, ok = k.Released()
	assert.False(t, ok, "latch is consumed")
}

func TestKeypad_ReleasedIgnoresKeysPressedEarlier(t *testing.T) {
	k := New()
	k.Press(1)
	k.Cycle()
	k.Cycle() // key 1 is held but was not pressed this frame

	_, ok := k.Released()
	assert.False(t, ok)
	assert.False(t, k.SaveState().HasQueued)
}

func TestKeyForRune(t *testing.T) {
	tests := []struct {
		r    rune
		code uint8
		ok   bool
	}{
		{'x', 0x0, true},
		{'1', 0x1, true},
		{'4', 0xC, true},
		{'V', 0xF, true},
		{'p', 0, false},
	}
	for _, tt := range tests {
		code, ok := KeyForRune(tt.r)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.code, code)
	}
}

func TestKeypad_StateRoundTrip(t *testing.T) {
	k := New()
	k.Press(2)
	k.Cycle()
	k.Released()

	other := New()
	assert.NoError(t, other.LoadState(k.SaveState()))
	assert.True(t, other.IsPressed(2))
	assert.Equal(t, k.SaveState(), other.SaveState())

	other.Reset()
	assert.False(t, other.IsPressed(2))
}

func TestKeypad_LoadStateRejectsInvalid(t *testing.T) {
	k := New()
	k.Press(5)
	k.Cycle()
	before := k.SaveState()

	err := k.LoadState(State{Queued: 200, HasQueued: true})
	assert.ErrorContains(t, err, "latched key")

	var timers [NumKeys]uint8
	timers[3] = HoldFrames + 1
	err = k.LoadState(State{Timers: timers})
	assert.ErrorContains(t, err, "hold timer")

	assert.Equal(t, before, k.SaveState())

	// an out-of-range code is harmless when nothing is latched
	assert.NoError(t, k.LoadState(State{Queued: 200}))
}
