package pixel

import (
	"errors"
	"fmt"
)

// Channels per pixel and byte offsets within a pixel.
const (
	ChannelR = 0
	ChannelG = 1
	ChannelB = 2
	ChannelA = 3

	BytesPerPixel = 4
)

var (
	ErrShapeMismatch = errors.New("pixel data length disagrees with declared dimensions")
	ErrOutOfBounds   = errors.New("pixel access out of bounds")
)

// Buffer is a raw RGBA8 bitmap: row-major, 4 bytes per pixel, no stride gaps.
// It carries no behavior beyond construction and bounds-checked access; all
// transformations live in the filter package.
type Buffer struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// New validates that data holds exactly width*height*4 bytes and wraps it
// without copying. The caller keeps ownership of data.
func New(width, height uint32, data []byte) (Buffer, error) {
	expected := int(width) * int(height) * BytesPerPixel
	if len(data) != expected {
		return Buffer{}, fmt.Errorf("%w: expected %d bytes for %dx%d, got %d",
			ErrShapeMismatch, expected, width, height, len(data))
	}
	return Buffer{Width: width, Height: height, Data: data}, nil
}

// Alloc returns a zeroed buffer of the given dimensions.
func Alloc(width, height uint32) Buffer {
	return Buffer{
		Width:  width,
		Height: height,
		Data:   make([]byte, int(width)*int(height)*BytesPerPixel),
	}
}

// At returns the byte for one channel of the pixel at (x, y).
func (b Buffer) At(x, y uint32, channel int) (byte, error) {
	if x >= b.Width || y >= b.Height {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, b.Width, b.Height)
	}
	if channel < ChannelR || channel > ChannelA {
		return 0, fmt.Errorf("%w: channel %d", ErrOutOfBounds, channel)
	}
	return b.Data[(int(y)*int(b.Width)+int(x))*BytesPerPixel+channel], nil
}

// PixelOffset returns the byte offset of the pixel at (x, y). Callers are
// expected to stay within bounds; kernels use this on already-validated
// coordinates.
func (b Buffer) PixelOffset(x, y uint32) int {
	return (int(y)*int(b.Width) + int(x)) * BytesPerPixel
}

// Clone returns a buffer with its own copy of the pixel data.
func (b Buffer) Clone() Buffer {
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	return Buffer{Width: b.Width, Height: b.Height, Data: data}
}

// Validate re-checks the shape invariant. The pipeline executor calls this
// after every stage.
func (b Buffer) Validate() error {
	expected := int(b.Width) * int(b.Height) * BytesPerPixel
	if len(b.Data) != expected {
		return fmt.Errorf("%w: expected %d bytes for %dx%d, got %d",
			ErrShapeMismatch, expected, b.Width, b.Height, len(b.Data))
	}
	return nil
}
