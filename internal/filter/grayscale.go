package filter

import (
	"math"

	"github.com/dunamismax/pixlab/internal/pixel"
)

// Rec. 601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale replaces R, G and B with the rounded luma value and leaves alpha
// untouched. Mutates the buffer in place and returns it.
func Grayscale(buf pixel.Buffer) pixel.Buffer {
	data := buf.Data
	for i := 0; i < len(data); i += pixel.BytesPerPixel {
		luma := lumaR*float64(data[i]) + lumaG*float64(data[i+1]) + lumaB*float64(data[i+2])
		v := clampByte(int(math.Round(luma)))
		data[i] = v
		data[i+1] = v
		data[i+2] = v
	}
	return buf
}
