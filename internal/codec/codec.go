// Package codec converts between encoded raster images and raw RGBA8 pixel
// buffers. It is the boundary between the filter pipeline, which only ever
// sees pixel.Buffer, and everything that speaks PNG/JPEG/WebP.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Metadata describes an encoded image without decoding its pixels.
type Metadata struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int    `json:"size_bytes"`
}

// Inspect reads just enough of data to report format and dimensions.
func Inspect(data []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("decode image header: %w", err)
	}
	return Metadata{
		Format:    NormalizeFormat(format),
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: len(data),
	}, nil
}

// NormalizeFormat folds aliases and maps anything unknown to png, the
// lossless default.
func NormalizeFormat(format string) string {
	switch format {
	case "jpg":
		return "jpeg"
	case "jpeg", "png", "webp":
		return format
	default:
		return "png"
	}
}

// ContentType returns the MIME type for a normalized format.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
