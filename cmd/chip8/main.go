// Package main implements the CHIP-8 virtual machine command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/debugger"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/sound"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/term"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	frontendWindow   = "window"
	frontendTerm     = "term"
	frontendHeadless = "headless"
)

type optionFlags struct {
	program  string
	legacy   bool
	debug    bool
	frontend string
	seed     int
	mute     bool
	quiet    bool
	verbose  bool
	version  bool

	// window
	scale   int
	palette string
	romsDir string

	// headless
	frames int
	pngOut string
	expect string // expected screen CRC32 hex (e.g. "1a2b3c4d")
}

func main() {
	ctx := app.Context()

	opts, ok := readArguments()
	if opts.version {
		fmt.Printf("chip8 version: %s\n", buildinfo.Version(version, commit, date))
		return
	}
	if !ok {
		os.Exit(2)
	}

	logger := config.CreateLogger(opts.verbose, opts.quiet)
	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, debugger.ErrQuit) || errors.Is(err, context.Canceled) {
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func readArguments() (optionFlags, bool) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	var opts optionFlags

	flags.BoolVar(&opts.legacy, "legacy", false, "COSMAC VIP semantics for shifts and register store/load")
	flags.BoolVar(&opts.debug, "debug", false, "step through the program instruction by instruction on the console")
	flags.StringVar(&opts.frontend, "frontend", frontendWindow, "frontend to use: window, term or headless")
	flags.IntVar(&opts.seed, "seed", 0, "random number seed, 0 seeds from the clock")
	flags.BoolVar(&opts.mute, "mute", false, "start with the tone muted")
	flags.BoolVar(&opts.quiet, "q", false, "only log errors")
	flags.BoolVar(&opts.verbose, "v", false, "verbose debug logging")
	flags.BoolVar(&opts.version, "version", false, "print the version and exit")

	flags.IntVar(&opts.scale, "scale", 10, "window scale")
	flags.StringVar(&opts.palette, "palette", "", "window palette name, picked from the program when empty")
	flags.StringVar(&opts.romsDir, "roms", "roms", "directory listed by the program browser")

	flags.IntVar(&opts.frames, "frames", 300, "frames to run in headless mode")
	flags.StringVar(&opts.pngOut, "outpng", "", "write the last frame to a PNG at path")
	flags.StringVar(&opts.expect, "expect", "", "assert the screen CRC32 (hex) in headless mode")

	err := flags.Parse(os.Args[1:])
	if opts.version {
		return opts, true
	}
	args := flags.Args()

	usage := func(msg string) (optionFlags, bool) {
		if msg != "" {
			fmt.Fprintf(os.Stderr, "%s\n\n", msg)
		}
		fmt.Fprintf(os.Stderr, "usage: chip8 [options] <program file>\n\n")
		flags.SetOutput(os.Stderr)
		flags.PrintDefaults()
		return opts, false
	}

	switch {
	case err != nil:
		return opts, false // flag package already reported the error
	case len(args) == 0:
		return usage("missing program file")
	case len(args) > 1:
		return usage("too many arguments")
	}
	opts.program = args[0]

	switch opts.frontend {
	case frontendWindow, frontendTerm, frontendHeadless:
	default:
		return usage(fmt.Sprintf("unknown frontend %q", opts.frontend))
	}
	if opts.debug && opts.frontend == frontendTerm {
		return usage("-debug reads the console and cannot be combined with the term frontend")
	}
	if opts.palette != "" {
		if _, ok := display.PaletteByName(opts.palette); !ok {
			return usage(fmt.Sprintf("unknown palette %q", opts.palette))
		}
	}
	return opts, true
}

func run(ctx context.Context, logger *log.Logger, opts optionFlags) error {
	cfg := emu.Config{
		Legacy:      opts.legacy,
		Seed:        opts.seed,
		Unthrottled: opts.frontend == frontendHeadless,
	}
	m := emu.New(cfg, logger)
	if err := m.LoadProgramFromFile(opts.program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	if opts.debug {
		m.SetTracer(debugger.New(os.Stdin, os.Stdout))
	}

	switch opts.frontend {
	case frontendTerm:
		return runTerminal(ctx, logger, m, opts)
	case frontendHeadless:
		return runHeadless(ctx, logger, m, opts)
	default:
		return runWindow(m, logger, opts)
	}
}

func runWindow(m *emu.Machine, logger *log.Logger, opts optionFlags) error {
	uiCfg := ui.Config{
		Title:   "chip8 - " + m.Image().Title,
		Scale:   opts.scale,
		Mute:    opts.mute,
		ROMsDir: opts.romsDir,
	}
	if opts.palette != "" {
		uiCfg.Palette, _ = display.PaletteByName(opts.palette)
	}
	return ui.NewApp(uiCfg, m, logger).Run()
}

func runTerminal(ctx context.Context, logger *log.Logger, m *emu.Machine, opts optionFlags) error {
	input := term.NewInput()
	host, err := term.Start(os.Stdin, input)
	if err != nil {
		return fmt.Errorf("starting terminal: %w", err)
	}
	defer host.Stop()

	if !host.Fits() {
		w, l, _ := host.Size()
		logger.Warn("Terminal is smaller than a frame",
			log.Int("columns", w), log.Int("lines", l),
			log.Int("needColumns", term.Columns), log.Int("needLines", term.Lines))
	}

	renderer := term.NewRenderer(os.Stdout)
	if err := renderer.Enter(); err != nil {
		return err
	}
	defer func() { _ = renderer.Leave() }()

	m.SetDisplay(renderer)
	m.SetInput(input)

	if !opts.mute {
		beeper := apu.New(apu.DefaultSampleRate)
		player, err := sound.Start(beeper, beeper.SampleRate())
		if err != nil {
			logger.Warn("Audio unavailable", log.Err(err))
		} else {
			defer func() { _ = player.Close() }()
			m.SetTone(beeper)
		}
	}
	return m.Run(ctx)
}

func runHeadless(ctx context.Context, logger *log.Logger, m *emu.Machine, opts optionFlags) error {
	frames := max(opts.frames, 1)

	start := time.Now()
	ran := 0
	for ran < frames && ctx.Err() == nil {
		if err := m.StepFrame(); err != nil {
			return err
		}
		ran++
	}
	dur := time.Since(start)

	screen := m.Screen()
	crc := screen.Checksum()
	logger.Info("Headless run finished",
		log.Int("frames", ran),
		log.String("elapsed", dur.Truncate(time.Millisecond).String()),
		log.String("screenCRC32", fmt.Sprintf("%08x", crc)),
		log.Int("litPixels", screen.Lit()))

	if opts.pngOut != "" {
		if err := saveFramePNG(screen, opts.scale, opts.pngOut); err != nil {
			return fmt.Errorf("writing PNG: %w", err)
		}
		logger.Info("Frame written", log.String("path", opts.pngOut))
	}

	if opts.expect != "" {
		want := strings.TrimPrefix(strings.ToLower(opts.expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(s *display.Screen, scale int, path string) error {
	palette := display.Palettes[0]
	img := display.ScaledImage(s.Image(palette.On, palette.Off), scale)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
