// Package keypad models the 16-key hexadecimal input pad.
//
// Frontends only see key-down events (a terminal has no key-up), so every
// press is held active for HoldFrames frames from the frame it is first
// observed. A press on a key that is still active is ignored.
package keypad

import "fmt"

const (
	NumKeys    = 16
	HoldFrames = 16 // ~267 ms at 60 Hz
)

// QWERTY maps the keypad codes 0x0-0xF to the left-hand block of a QWERTY
// keyboard, following the COSMAC VIP layout:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var QWERTY = [NumKeys]rune{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

// KeyForRune returns the keypad code bound to r in the QWERTY layout.
// Upper-case letters map like their lower-case form.
func KeyForRune(r rune) (uint8, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	for code, k := range QWERTY {
		if k == r {
			return uint8(code), true
		}
	}
	return 0, false
}

// Keypad tracks per-key hold timers and the press-then-release wait used by
// the key-wait instruction.
type Keypad struct {
	timers  [NumKeys]uint8
	pending []uint8

	queued    uint8
	hasQueued bool
}

func New() *Keypad { return &Keypad{} }

// Press records a key-down event. It takes effect on the next Cycle.
func (k *Keypad) Press(code uint8) {
	if code >= NumKeys {
		return
	}
	k.pending = append(k.pending, code)
}

// Cycle advances the keypad by one frame: hold timers tick down first, then
// the presses recorded since the last cycle are applied.
func (k *Keypad) Cycle() {
	for i, t := range k.timers {
		if t > 0 {
			k.timers[i] = t - 1
		}
	}
	for _, code := range k.pending {
		if k.timers[code] == 0 {
			k.timers[code] = HoldFrames
		}
	}
	k.pending = k.pending[:0]
}

// IsPressed reports whether the key is currently held. Codes above 0xF are
// never held.
func (k *Keypad) IsPressed(code uint8) bool {
	if code >= NumKeys {
		return false
	}
	return k.timers[code] != 0
}

// Released implements the wait for a full press-and-release cycle. The
// first key pressed during the current frame is latched; once its hold
// timer runs out the key is returned and the latch cleared. Until then it
// returns false.
func (k *Keypad) Released() (uint8, bool) {
	if !k.hasQueued {
		for code, t := range k.timers {
			if t == HoldFrames {
				k.queued = uint8(code)
				k.hasQueued = true
				break
			}
		}
		return 0, false
	}
	if k.timers[k.queued] > 0 {
		return 0, false
	}
	k.hasQueued = false
	return k.queued, true
}

// Reset releases every key and drops pending presses.
func (k *Keypad) Reset() {
	*k = Keypad{pending: k.pending[:0]}
}

// State is the serialisable keypad state.
type State struct {
	Timers    [NumKeys]uint8
	Queued    uint8
	HasQueued bool
}

func (k *Keypad) SaveState() State {
	return State{Timers: k.timers, Queued: k.queued, HasQueued: k.hasQueued}
}

// LoadState restores s. An invalid state leaves the keypad unchanged.
func (k *Keypad) LoadState(s State) error {
	if s.HasQueued && s.Queued >= NumKeys {
		return fmt.Errorf("latched key %#x out of range", s.Queued)
	}
	for code, t := range s.Timers {
		if t > HoldFrames {
			return fmt.Errorf("key %#x hold timer %d exceeds %d frames", code, t, HoldFrames)
		}
	}
	k.timers = s.Timers
	k.queued = s.Queued
	k.hasQueued = s.HasQueued
	k.pending = k.pending[:0]
	return nil
}
