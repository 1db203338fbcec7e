package ui

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// startAudio connects the beeper to an ebiten audio player. Audio is
// optional; on failure the app runs silent.
func (a *App) startAudio() error {
	a.beeper = apu.New(apu.DefaultSampleRate)
	a.beeper.SetMuted(a.cfg.Mute)
	a.m.SetTone(a.beeper)

	a.audioCtx = audio.NewContext(a.beeper.SampleRate())
	p, err := a.audioCtx.NewPlayer(a.beeper)
	if err != nil {
		return err
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.audioPlayer.Play()
	return nil
}

// applyPlayerBufferSize keeps the player's internal buffer small so the tone
// stops close to the frame the sound timer expired in.
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	a.audioPlayer.SetBufferSize(time.Duration(a.cfg.AudioBufferMs) * time.Millisecond)
}

func (a *App) toggleMute() {
	if a.beeper == nil {
		return
	}
	muted := !a.beeper.Muted()
	a.beeper.SetMuted(muted)
	if muted {
		a.toast("Muted")
	} else {
		a.toast("Sound on")
	}
}
