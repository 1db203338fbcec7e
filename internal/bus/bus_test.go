package bus

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestBus_FontInstalled(t *testing.T) {
	b := New()

	// glyph "0" is the first five bytes
	want := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}
	got, err := b.Slice(FontStart, GlyphSize)
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	addr, ok := GlyphAddress(0xF)
	assert.True(t, ok)
	assert.Equal(t, uint16(75), addr)
	v, err := b.Read(addr + 4)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x80), v)

	_, ok = GlyphAddress(0x10)
	assert.False(t, ok)
}

func TestBus_LoadProgram(t *testing.T) {
	b := New()
	assert.NoError(t, b.Load([]byte{0x60, 0x0A, 0x12, 0x00}))

	op, err := b.Read16(ProgramStart)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x600A), op)

	// a full-size image fits exactly
	assert.NoError(t, b.Load(make([]byte, MaxProgramSize)))

	err = b.Load(make([]byte, MaxProgramSize+1))
	assert.True(t, errors.Is(err, ErrProgramTooLarge))
}

func TestBus_BoundsChecks(t *testing.T) {
	b := New()

	assert.NoError(t, b.Write(0x0FFF, 0x42))
	v, err := b.Read(0x0FFF)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x42), v)

	_, err = b.Read(0x1000)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
	assert.True(t, errors.Is(b.Write(0x1000, 1), ErrAddressOutOfRange))

	_, err = b.Read16(0x0FFF)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))

	_, err = b.Slice(0x0FFE, 3)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))

	// range writes are all-or-nothing
	err = b.WriteRange(0x0FFE, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
	v, _ = b.Read(0x0FFE)
	assert.Equal(t, byte(0), v)
}

func TestBus_StateRoundTrip(t *testing.T) {
	b := New()
	assert.NoError(t, b.Load([]byte{0xA2, 0x2A}))
	state := b.SaveState()

	other := New()
	assert.NoError(t, other.LoadState(state))
	op, err := other.Read16(ProgramStart)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xA22A), op)

	assert.Error(t, other.LoadState(state[:10]))
}
