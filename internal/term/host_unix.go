//go:build unix

package term

import (
	"os"

	"golang.org/x/sys/unix"
)

func setNonblock(fd int, on bool) error {
	return unix.SetNonblock(fd, on)
}

// readInput reads whatever is available. retry is set when nothing was
// ready on a non-blocking descriptor.
func readInput(_ *os.File, fd int, nonblock bool, buf []byte) (int, bool, error) {
	n, err := unix.Read(fd, buf)
	if nonblock && (err == unix.EAGAIN || err == unix.EWOULDBLOCK) {
		return 0, true, nil
	}
	if n < 0 {
		n = 0
	}
	return n, false, err
}
