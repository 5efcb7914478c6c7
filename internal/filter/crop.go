package filter

import (
	"fmt"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/pixel"
)

// Crop extracts rect into a new buffer of rect's dimensions. The rectangle
// must be fully contained in the source; out-of-bounds or empty rectangles
// fail rather than clamp.
func Crop(buf pixel.Buffer, rect domain.CropRect) (pixel.Buffer, error) {
	if rect.Width == 0 || rect.Height == 0 {
		return buf, fmt.Errorf("%w: crop dimensions %dx%d must be positive",
			ErrInvalidParameter, rect.Width, rect.Height)
	}
	if uint64(rect.X)+uint64(rect.Width) > uint64(buf.Width) ||
		uint64(rect.Y)+uint64(rect.Height) > uint64(buf.Height) {
		return buf, fmt.Errorf("%w: crop rect (%d,%d %dx%d) exceeds buffer %dx%d",
			ErrInvalidParameter, rect.X, rect.Y, rect.Width, rect.Height, buf.Width, buf.Height)
	}

	out := pixel.Alloc(rect.Width, rect.Height)
	srcRowBytes := int(buf.Width) * pixel.BytesPerPixel
	dstRowBytes := int(rect.Width) * pixel.BytesPerPixel
	for row := 0; row < int(rect.Height); row++ {
		srcStart := (int(rect.Y)+row)*srcRowBytes + int(rect.X)*pixel.BytesPerPixel
		dstStart := row * dstRowBytes
		copy(out.Data[dstStart:dstStart+dstRowBytes], buf.Data[srcStart:srcStart+dstRowBytes])
	}
	return out, nil
}
