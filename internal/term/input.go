package term

import (
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
)

const ctrlC = 0x03

// Input collects bytes read from the terminal and turns them into key
// presses once per frame.
type Input struct {
	bytes chan byte
}

func NewInput() *Input {
	return &Input{bytes: make(chan byte, 64)}
}

// Feed queues one byte from the terminal. Bytes are dropped when the queue
// is full.
func (in *Input) Feed(b byte) {
	select {
	case in.bytes <- b:
	default:
	}
}

// Poll drains the queued bytes. Ctrl-C requests a stop; other bytes are
// mapped through the QWERTY layout and unknown ones ignored.
func (in *Input) Poll(kp *keypad.Keypad) bool {
	quit := false
	for {
		select {
		case b := <-in.bytes:
			if b == ctrlC {
				quit = true
				continue
			}
			if code, ok := keypad.KeyForRune(rune(b)); ok {
				kp.Press(code)
			}
		default:
			return quit
		}
	}
}
