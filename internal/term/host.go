package term

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("stdin is not a terminal")

// Host owns the raw-mode terminal and the goroutine reading stdin.
type Host struct {
	fd       int
	oldState *term.State
	nonblock bool

	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// Start puts f into raw mode and feeds every byte read from it into in.
// Stop must be called to restore the terminal.
func Start(f *os.File, in *Input) (*Host, error) {
	h := &Host{
		fd:   int(f.Fd()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if !term.IsTerminal(h.fd) {
		return nil, ErrNotTerminal
	}
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	h.oldState = oldState

	if err := setNonblock(h.fd, true); err == nil {
		h.nonblock = true
	}

	go h.readLoop(f, in)
	return h, nil
}

// Size returns the terminal size in columns and lines.
func (h *Host) Size() (int, int, error) {
	return term.GetSize(h.fd)
}

// Fits reports whether a whole frame fits on the terminal.
func (h *Host) Fits() bool {
	w, l, err := h.Size()
	return err == nil && w >= Columns && l >= Lines
}

func (h *Host) readLoop(f *os.File, in *Input) {
	defer close(h.done)
	buf := make([]byte, 16)
	for {
		select {
		case <-h.stop:
			return
		default:
		}
		n, retry, err := readInput(f, h.fd, h.nonblock, buf)
		for _, b := range buf[:n] {
			in.Feed(b)
		}
		if err != nil {
			return
		}
		if retry || n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop ends the reader and restores the terminal state.
func (h *Host) Stop() {
	h.stopped.Do(func() {
		close(h.stop)
	})
	if h.nonblock {
		<-h.done
		_ = setNonblock(h.fd, false)
		h.nonblock = false
	}
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}
