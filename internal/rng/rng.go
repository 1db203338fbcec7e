// Package rng provides the byte source behind the random-number instruction.
package rng

import "time"

// Xorshift is an 8-bit xorshift generator (shift triple 7, 5, 3). It is fast
// and deterministic for a given seed, which is all the random instruction
// needs; it is not suitable for anything security related.
type Xorshift struct {
	state byte
}

// zeroSeed replaces a zero seed, the one fixed point of the generator.
const zeroSeed = 0x5A

// New returns a generator starting from seed.
func New(seed byte) *Xorshift {
	if seed == 0 {
		seed = zeroSeed
	}
	return &Xorshift{state: seed}
}

// NewFromTime seeds a generator from the sub-second part of the wall clock.
func NewFromTime() *Xorshift {
	return New(byte(time.Now().Nanosecond()))
}

// NextByte advances the generator and returns the new state.
func (x *Xorshift) NextByte() byte {
	x.state ^= x.state << 7
	x.state ^= x.state >> 5
	x.state ^= x.state << 3
	return x.state
}

// State returns the current generator state, for save states.
func (x *Xorshift) State() byte { return x.state }

// SetState restores a state returned by State.
func (x *Xorshift) SetState(s byte) {
	if s == 0 {
		s = zeroSeed
	}
	x.state = s
}
