// Package sound plays the beeper through the system audio device for the
// frontends that do not bring their own audio stack.
package sound

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player streams 16-bit little-endian stereo PCM from a reader.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	once   sync.Once
}

// Start opens the audio device and starts pulling from src. It waits until
// the device is ready.
func Start(src io.Reader, sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   40 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	p := &Player{ctx: ctx, player: ctx.NewPlayer(src)}
	p.player.Play()
	return p, nil
}

// Close stops playback. It is safe to call more than once.
func (p *Player) Close() error {
	p.once.Do(p.player.Pause)
	return nil
}
