package emu

import (
	"context"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// Run steps frames at the configured rate until the context is cancelled,
// the input requests a stop, or the CPU faults. Cancellation and stop
// requests are observed between frames and return nil.
func (m *Machine) Run(ctx context.Context) error {
	return m.run(ctx, time.Now, sleepContext)
}

func (m *Machine) run(ctx context.Context, now func() time.Time, sleep func(context.Context, time.Duration) error) error {
	period := time.Second / time.Duration(m.cfg.FrameRate)
	for {
		if ctx.Err() != nil {
			return nil
		}
		start := now()
		if err := m.StepFrame(); err != nil {
			return err
		}
		if m.quit {
			return nil
		}
		if m.cfg.Unthrottled {
			continue
		}
		// missed frames are not caught up
		remaining := period - now().Sub(start)
		if remaining <= 0 {
			if m.logger != nil {
				m.logger.Debug("Frame overrun", log.Int("frame", int(m.frames)), log.String("over", (-remaining).String()))
			}
			continue
		}
		if err := sleep(ctx, remaining); err != nil {
			return nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
