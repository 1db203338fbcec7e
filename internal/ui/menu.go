package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const lineHeight = 14

var mainMenu = []string{
	"Resume",
	"Save state",
	"Load state",
	"Select slot",
	"Switch program",
	"Palette",
	"Reset",
	"Quit",
}

func (a *App) updateMenu() {
	switch a.menuMode {
	case "slot":
		a.updateSlotMenu()
	case "rom":
		a.updateRomMenu()
	default:
		a.updateMainMenu()
	}
}

func (a *App) moveSelection(sel *int, n int) {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && *sel > 0 {
		*sel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && *sel < n-1 {
		*sel++
	}
}

func (a *App) updateMainMenu() {
	a.moveSelection(&a.menuIdx, len(mainMenu))
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
		return
	}
	if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		return
	}
	switch mainMenu[a.menuIdx] {
	case "Resume":
		a.showMenu = false
	case "Save state":
		a.saveSlot(a.currentSlot)
	case "Load state":
		if _, err := os.Stat(a.statePath(a.currentSlot)); err != nil {
			a.toast("Slot is empty")
			return
		}
		a.loadSlot(a.currentSlot)
	case "Select slot":
		a.menuMode = "slot"
		a.menuIdx = a.currentSlot
	case "Switch program":
		a.romList = a.findROMs()
		a.romSel = 0
		a.menuMode = "rom"
	case "Palette":
		a.nextPalette()
	case "Reset":
		a.reset()
		a.showMenu = false
	case "Quit":
		a.quit = true
	}
}

func (a *App) updateSlotMenu() {
	a.moveSelection(&a.menuIdx, a.cfg.Slots)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menuMode = "main"
		a.menuIdx = 0
	}
}

func (a *App) updateRomMenu() {
	a.moveSelection(&a.romSel, len(a.romList))
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menuMode = "main"
		return
	}
	if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) || len(a.romList) == 0 {
		return
	}
	path := a.romList[a.romSel]
	if err := a.m.LoadProgramFromFile(path); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	img := a.m.Image()
	if a.cfg.Palette.Name == "" {
		a.palette = display.AutoPalette(img.Title, img.CRC32)
	}
	ebiten.SetWindowTitle(a.cfg.Title + " - " + img.Title)
	a.fault = nil
	a.refresh()
	a.showMenu = false
	a.toast("Loaded " + img.Title)
}

func (a *App) nextPalette() {
	idx := 0
	for i, p := range display.Palettes {
		if p.Name == a.palette.Name {
			idx = (i + 1) % len(display.Palettes)
			break
		}
	}
	a.palette = display.Palettes[idx]
	a.refresh()
	a.toast("Palette " + a.palette.Name)
}

// findROMs lists program files below the configured directory.
func (a *App) findROMs() []string {
	var out []string
	_ = filepath.WalkDir(a.cfg.ROMsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ch8", ".c8", ".chip8":
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (a *App) drawMenu(screen *ebiten.Image) {
	switch a.menuMode {
	case "slot":
		a.drawSlotMenu(screen)
	case "rom":
		a.drawRomMenu(screen)
	default:
		a.drawList(screen, fmt.Sprintf("Menu (slot %d, %s):", a.currentSlot+1, a.palette.Name), mainMenu, a.menuIdx)
	}
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	lines := make([]string, 0, a.cfg.Slots)
	for i := 0; i < a.cfg.Slots; i++ {
		state := "[empty]"
		if _, err := os.Stat(a.statePath(i)); err == nil {
			state = ""
		}
		lines = append(lines, fmt.Sprintf("%d %s", i+1, state))
	}
	a.drawList(screen, "Select slot:", lines, a.menuIdx)
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No programs in "+a.cfg.ROMsDir, 10, 10)
		return
	}
	rows := (display.Height*a.cfg.Scale - 10) / lineHeight
	if rows < 2 {
		rows = 2
	}
	start := 0
	if a.romSel >= rows-1 {
		start = a.romSel - (rows - 2)
	}
	end := min(start+rows-1, len(a.romList))
	names := make([]string, 0, end-start)
	for _, p := range a.romList[start:end] {
		names = append(names, filepath.Base(p))
	}
	a.drawList(screen, "Select program:", names, a.romSel-start)
}

func (a *App) drawList(screen *ebiten.Image, title string, lines []string, sel int) {
	ebitenutil.DebugPrintAt(screen, title, 10, 10)
	for i, s := range lines {
		prefix := "  "
		if i == sel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+(i+1)*lineHeight)
	}
}
