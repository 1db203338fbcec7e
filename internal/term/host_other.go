//go:build !unix

package term

import (
	"errors"
	"os"
)

func setNonblock(int, bool) error {
	return errors.New("non-blocking stdin not supported")
}

// readInput blocks until input arrives. The reader goroutine stays parked
// in Read after Stop until the next key or process exit.
func readInput(f *os.File, _ int, _ bool, buf []byte) (int, bool, error) {
	n, err := f.Read(buf)
	return n, false, err
}
