package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/dunamismax/pixlab/internal/pixel"
)

const defaultJPEGQuality = 80

// Encode serializes a pixel buffer into the requested format. quality is
// only meaningful for lossy formats; zero picks the default. WebP export is
// available on govips builds only.
func Encode(buf pixel.Buffer, format string, quality int) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	switch NormalizeFormat(format) {
	case "png":
		return encodePNG(buf)
	case "jpeg":
		return encodeJPEG(buf, quality)
	case "webp":
		return encodeWebP(buf, quality)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// toNRGBA wraps the buffer's bytes without copying; the encoders only read.
func toNRGBA(buf pixel.Buffer) *image.NRGBA {
	return &image.NRGBA{
		Pix:    buf.Data,
		Stride: int(buf.Width) * pixel.BytesPerPixel,
		Rect:   image.Rect(0, 0, int(buf.Width), int(buf.Height)),
	}
}

func encodePNG(buf pixel.Buffer) ([]byte, error) {
	var out bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := encoder.Encode(&out, toNRGBA(buf)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func encodeJPEG(buf pixel.Buffer, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, toNRGBA(buf), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
