// Package main implements a headless runner that executes a CHIP-8 program
// for a number of instructions and reports faults with a trace window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/debugger"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/retroenv/retrogolib/app"
)

var errStepLimit = errors.New("step limit reached")

// stepLimit stops the machine once the configured number of instructions ran.
type stepLimit struct {
	max   int
	steps int
}

func (s *stepLimit) BeforeStep(*cpu.CPU) error {
	if s.steps >= s.max {
		return errStepLimit
	}
	s.steps++
	return nil
}

func main() {
	steps := flag.Int("steps", 1_000_000, "max CPU steps to run")
	legacy := flag.Bool("legacy", false, "COSMAC VIP semantics for shifts and register store/load")
	seed := flag.Int("seed", 1, "random number seed, 0 seeds from the clock")
	trace := flag.Bool("trace", false, "print every instruction before it runs")
	traceOnFail := flag.Bool("traceOnFail", true, "print the recent trace window when the program faults")
	traceWindow := flag.Int("traceWindow", 64, "number of recent instructions kept for the fault dump")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: chip8run [options] <program file>\n\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx := app.Context()
	logger := config.CreateLogger(false, *quiet)

	m := emu.New(emu.Config{Legacy: *legacy, Seed: *seed, Unthrottled: true}, logger)
	if err := m.LoadProgramFromFile(flag.Arg(0)); err != nil {
		logger.Fatal(err.Error())
	}

	limit := &stepLimit{max: *steps}
	ring := debugger.NewTrace(*traceWindow)
	if *trace {
		ring.Stream = os.Stdout
	}
	m.SetTracer(limit, ring)

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	done := func(code int) {
		c := m.CPU()
		fmt.Printf("\nDone: steps=%d frames=%d pc=%04X elapsed=%s\n",
			limit.steps, m.Frames(), c.PC, time.Since(start).Truncate(time.Millisecond))
		os.Exit(code)
	}

	for ctx.Err() == nil {
		err := m.StepFrame()
		switch {
		case err == nil:
		case errors.Is(err, errStepLimit):
			done(0)
		default:
			fmt.Printf("\n%v\n", err)
			if *traceOnFail && !*trace {
				entries := ring.Entries()
				fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(entries))
				ring.Dump(os.Stdout)
				fmt.Printf("--- end trace ---\n")
			}
			done(1)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(2)
		}
	}
	done(0)
}
