package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/dunamismax/pixlab/internal/pixel"
)

// Decode turns an encoded image into a straight-alpha RGBA8 pixel buffer.
// The second return value is the normalized source format. NRGBA is used as
// the intermediate so alpha stays unpremultiplied, matching the pipeline's
// channel semantics.
func Decode(data []byte) (pixel.Buffer, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return pixel.Buffer{}, "", fmt.Errorf("decode source image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return pixel.Buffer{}, "", fmt.Errorf("source image has invalid dimensions %dx%d", w, h)
	}

	nrgba, ok := src.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) || nrgba.Stride != w*pixel.BytesPerPixel {
		converted := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(converted, converted.Bounds(), src, bounds.Min, draw.Src)
		nrgba = converted
	}

	buf, err := pixel.New(uint32(w), uint32(h), nrgba.Pix)
	if err != nil {
		return pixel.Buffer{}, "", err
	}
	return buf, NormalizeFormat(format), nil
}
