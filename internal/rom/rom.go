package rom

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
)

var ErrEmpty = errors.New("program image is empty")

// Image is a validated program image together with the details used to
// identify it in logs and save-state file names.
type Image struct {
	Path  string // empty when loaded from memory
	Title string // file name without extension
	Data  []byte
	CRC32 uint32
}

// Parse validates a raw image. It must be non-empty and fit above the
// program start address.
func Parse(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > bus.MaxProgramSize {
		return nil, fmt.Errorf("%w: %d bytes, at most %d fit", bus.ErrProgramTooLarge, len(data), bus.MaxProgramSize)
	}
	img := &Image{
		Data:  append([]byte(nil), data...),
		CRC32: crc32.ChecksumIEEE(data),
	}
	return img, nil
}

// Load reads and validates the image at path.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	img, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}
	img.Path = path
	base := filepath.Base(path)
	img.Title = strings.TrimSuffix(base, filepath.Ext(base))
	return img, nil
}

func (img *Image) Size() int { return len(img.Data) }

// Odd reports whether the image ends with half an instruction. Such images
// still load; the last byte is only reachable as data.
func (img *Image) Odd() bool { return len(img.Data)%2 != 0 }

// StatePath returns the default save-state file next to the image.
func (img *Image) StatePath() string {
	if img.Path == "" {
		return fmt.Sprintf("%08x.state", img.CRC32)
	}
	return strings.TrimSuffix(img.Path, filepath.Ext(img.Path)) + ".state"
}

func (img *Image) String() string {
	name := img.Title
	if name == "" {
		name = "<memory>"
	}
	return fmt.Sprintf("%s (%d bytes, crc32 %08x)", name, len(img.Data), img.CRC32)
}
