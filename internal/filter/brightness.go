package filter

import (
	"fmt"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/pixel"
)

// Brightness adds adjustment to R, G and B with clamping to [0, 255]; alpha
// is untouched. Mutates the buffer in place and returns it.
func Brightness(buf pixel.Buffer, adjustment int) (pixel.Buffer, error) {
	if adjustment < domain.BrightnessMin || adjustment > domain.BrightnessMax {
		return buf, fmt.Errorf("%w: brightness adjustment %d outside [%d, %d]",
			ErrInvalidParameter, adjustment, domain.BrightnessMin, domain.BrightnessMax)
	}
	if adjustment == 0 {
		return buf, nil
	}

	data := buf.Data
	for i := 0; i < len(data); i += pixel.BytesPerPixel {
		data[i] = clampByte(int(data[i]) + adjustment)
		data[i+1] = clampByte(int(data[i+1]) + adjustment)
		data[i+2] = clampByte(int(data[i+2]) + adjustment)
	}
	return buf, nil
}
