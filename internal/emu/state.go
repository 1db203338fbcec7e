package emu

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/retroenv/retrogolib/log"
)

// --- Save/Load state ---
type machineState struct {
	Program uint32 // CRC32 of the image the state belongs to
	Legacy  bool
	Memory  []byte
	CPU     cpu.State
	Screen  []byte
	Keypad  keypad.State
	Rand    byte
	Frames  uint64
}

func (m *Machine) SaveState() ([]byte, error) {
	if m.image == nil {
		return nil, ErrNoProgram
	}
	s := machineState{
		Program: m.image.CRC32,
		Legacy:  m.cfg.Legacy,
		Memory:  m.bus.SaveState(),
		CPU:     m.cpu.SaveState(),
		Screen:  m.screen.SaveState(),
		Keypad:  m.keys.SaveState(),
		Rand:    m.rand.State(),
		Frames:  m.frames,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a state saved for the same program. Nothing is
// changed if the state is invalid.
func (m *Machine) LoadState(data []byte) error {
	if m.image == nil {
		return ErrNoProgram
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("decoding state: %w", err)
	}
	if s.Program != m.image.CRC32 {
		return fmt.Errorf("state belongs to program %08x, loaded is %08x", s.Program, m.image.CRC32)
	}
	if s.Legacy != m.cfg.Legacy {
		return fmt.Errorf("state was saved in %s mode", modeName(s.Legacy))
	}

	// validate everything before touching the machine
	mem, screen := m.bus.SaveState(), m.screen.SaveState()
	if err := m.bus.LoadState(s.Memory); err != nil {
		return err
	}
	if err := m.screen.LoadState(s.Screen); err != nil {
		_ = m.bus.LoadState(mem)
		return err
	}
	keys := m.keys.SaveState()
	if err := m.keys.LoadState(s.Keypad); err != nil {
		_ = m.bus.LoadState(mem)
		_ = m.screen.LoadState(screen)
		return fmt.Errorf("keypad state: %w", err)
	}
	if err := m.cpu.LoadState(s.CPU); err != nil {
		_ = m.bus.LoadState(mem)
		_ = m.screen.LoadState(screen)
		_ = m.keys.LoadState(keys)
		return err
	}
	m.rand.SetState(s.Rand)
	m.frames = s.Frames
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	data, err := m.SaveState()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("State saved", log.String("path", path))
	}
	return nil
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadState(data); err != nil {
		return fmt.Errorf("state %s: %w", path, err)
	}
	if m.logger != nil {
		m.logger.Info("State loaded", log.String("path", path))
	}
	return nil
}

func modeName(legacy bool) string {
	if legacy {
		return "legacy"
	}
	return "modern"
}
