package ui

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/debugger"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

// keyMap is the QWERTY layout: 1234 / QWER / ASDF / ZXCV.
var keyMap = [keypad.NumKeys]ebiten.Key{
	0x1: ebiten.KeyDigit1, 0x2: ebiten.KeyDigit2, 0x3: ebiten.KeyDigit3, 0xC: ebiten.KeyDigit4,
	0x4: ebiten.KeyQ, 0x5: ebiten.KeyW, 0x6: ebiten.KeyE, 0xD: ebiten.KeyR,
	0x7: ebiten.KeyA, 0x8: ebiten.KeyS, 0x9: ebiten.KeyD, 0xE: ebiten.KeyF,
	0xA: ebiten.KeyZ, 0x0: ebiten.KeyX, 0xB: ebiten.KeyC, 0xF: ebiten.KeyV,
}

type App struct {
	cfg    Config
	m      *emu.Machine
	logger *log.Logger

	tex     *ebiten.Image
	overlay *ebiten.Image
	pix     []byte
	palette display.Palette

	paused bool
	fault  error
	quit   bool

	// menu
	showMenu    bool
	menuMode    string
	menuIdx     int
	currentSlot int
	romList     []string
	romSel      int

	toastMsg   string
	toastUntil time.Time

	beeper      *apu.Beeper
	audioCtx    *audio.Context
	audioPlayer *audio.Player
}

// NewApp wires the window into the machine as its display, input and tone.
func NewApp(cfg Config, m *emu.Machine, logger *log.Logger) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	ebiten.SetTPS(m.Config().FrameRate)

	a := &App{
		cfg:     cfg,
		m:       m,
		logger:  logger,
		pix:     make([]byte, display.Width*display.Height*4),
		palette: cfg.Palette,
	}
	if a.palette.Name == "" {
		if img := m.Image(); img != nil {
			a.palette = display.AutoPalette(img.Title, img.CRC32)
		} else {
			a.palette = display.Palettes[0]
		}
	}
	m.SetDisplay(a)
	m.SetInput(a)
	if err := a.startAudio(); err != nil {
		logger.Warn("Audio unavailable", log.Err(err))
	}
	a.refresh()
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

// Poll implements emu.Input.
func (a *App) Poll(kp *keypad.Keypad) bool {
	if a.showMenu {
		return false
	}
	for code, key := range keyMap {
		if ebiten.IsKeyPressed(key) {
			kp.Press(uint8(code))
		}
	}
	return false
}

// Render implements emu.Display.
func (a *App) Render(s *display.Screen) error {
	s.WriteRGBA(a.pix, a.palette.On, a.palette.Off)
	return nil
}

// refresh redraws from the frame buffer outside of a frame step, e.g. after
// a state load while paused.
func (a *App) refresh() {
	_ = a.Render(a.m.Screen())
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if a.showMenu {
		a.updateMenu()
		if a.quit {
			return ebiten.Termination
		}
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlot(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlot(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.toggleMute()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		}
	}

	if a.fault != nil {
		return nil
	}
	step := !a.paused || inpututil.IsKeyJustPressed(ebiten.KeyN)
	if !step {
		return nil
	}
	if err := a.m.StepFrame(); err != nil {
		if errors.Is(err, debugger.ErrQuit) {
			return ebiten.Termination
		}
		a.fault = err
		if a.beeper != nil {
			a.beeper.StopTone()
		}
	}
	if a.m.QuitRequested() {
		return ebiten.Termination
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}
	a.tex.WritePixels(a.pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.cfg.Scale), float64(a.cfg.Scale))
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		a.dimScreen(screen)
		a.drawMenu(screen)
		return
	}
	switch {
	case a.fault != nil:
		a.dimScreen(screen)
		ebitenutil.DebugPrintAt(screen, "Halted: "+a.fault.Error(), 8, 8)
		ebitenutil.DebugPrintAt(screen, "Backspace: reset  F9: load state  Esc: menu", 8, 24)
	case a.paused:
		ebitenutil.DebugPrintAt(screen, "Paused (N: step frame)", 8, 8)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 8, display.Height*a.cfg.Scale-20)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	return display.Width * a.cfg.Scale, display.Height * a.cfg.Scale
}

func (a *App) dimScreen(screen *ebiten.Image) {
	if a.overlay == nil {
		a.overlay = ebiten.NewImage(display.Width*a.cfg.Scale, display.Height*a.cfg.Scale)
		a.overlay.Fill(color.RGBA{0, 0, 0, 160})
	}
	screen.DrawImage(a.overlay, nil)
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) reset() {
	if err := a.m.Reset(); err != nil {
		a.toast("Reset failed: " + err.Error())
		return
	}
	a.fault = nil
	a.refresh()
	a.toast("Reset")
}

func (a *App) statePath(slot int) string {
	img := a.m.Image()
	if img == nil {
		return fmt.Sprintf("slot%d.state", slot+1)
	}
	return fmt.Sprintf("%s.%d", img.StatePath(), slot+1)
}

func (a *App) saveSlot(slot int) {
	if err := a.m.SaveStateToFile(a.statePath(slot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", slot+1))
}

func (a *App) loadSlot(slot int) {
	if err := a.m.LoadStateFromFile(a.statePath(slot)); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.fault = nil
	a.refresh()
	a.toast(fmt.Sprintf("Loaded slot %d", slot+1))
}

func (a *App) saveScreenshot() error {
	img := display.ScaledImage(a.m.Screen().Image(a.palette.On, a.palette.Off), a.cfg.Scale)
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	a.toast("Saved " + name)
	return nil
}
