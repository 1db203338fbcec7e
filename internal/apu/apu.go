package apu

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

const (
	DefaultSampleRate = 48000
	ToneHz            = 442.0

	// amplitude of the tone, about a quarter of full scale
	amplitude = 0.25 * math.MaxInt16
)

// Beeper is the single-tone sound unit. The emulator thread toggles it with
// StartTone/StopTone while the audio backend pulls PCM through Read.
// Output is 16-bit little-endian stereo frames.
type Beeper struct {
	sampleRate int
	step       float64 // phase advance per sample, in radians

	on    atomic.Bool
	muted atomic.Bool

	// only touched by the reader
	phase float64
}

// New returns a silent beeper producing samples at sampleRate.
func New(sampleRate int) *Beeper {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Beeper{
		sampleRate: sampleRate,
		step:       2 * math.Pi * ToneHz / float64(sampleRate),
	}
}

func (b *Beeper) SampleRate() int { return b.sampleRate }

func (b *Beeper) StartTone() { b.on.Store(true) }

func (b *Beeper) StopTone() { b.on.Store(false) }

// Active reports whether the tone is currently requested.
func (b *Beeper) Active() bool { return b.on.Load() }

// SetMuted silences output without affecting the tone state.
func (b *Beeper) SetMuted(m bool) { b.muted.Store(m) }

func (b *Beeper) Muted() bool { return b.muted.Load() }

// Read fills p with whole stereo frames. It never blocks and never returns
// an error; the stream is endless. Buffers shorter than a frame are filled
// with silence.
func (b *Beeper) Read(p []byte) (int, error) {
	if len(p) < 4 {
		clear(p)
		return len(p), nil
	}
	n := len(p) &^ 3
	if !b.on.Load() || b.muted.Load() {
		clear(p[:n])
		// restart the wave at zero so the next tone starts without a click
		b.phase = 0
		return n, nil
	}
	for i := 0; i < n; i += 4 {
		s := uint16(int16(amplitude * math.Sin(b.phase)))
		binary.LittleEndian.PutUint16(p[i:], s)
		binary.LittleEndian.PutUint16(p[i+2:], s)
		b.phase += b.step
		if b.phase >= 2*math.Pi {
			b.phase -= 2 * math.Pi
		}
	}
	return n, nil
}
