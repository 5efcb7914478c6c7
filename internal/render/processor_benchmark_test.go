package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dunamismax/pixlab/internal/domain"
)

func BenchmarkProcessorGrayscaleBlur(b *testing.B) {
	source := benchmarkPNG(b, 1920, 1080)
	processor, err := NewProcessor(staticFetcher{data: source}, discardEmitter{})
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}

	req := Request{
		RenderID:   "bench",
		SourceType: SourceTypeS3Presigned,
		ObjectKey:  "ignored.png",
		Filters: domain.FilterConfig{
			Grayscale: true,
			Blur:      2,
		},
		Output: domain.OutputSpec{Format: "jpeg", Quality: 82},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req.RenderID = fmt.Sprintf("bench-%d", i)
		if _, err := processor.Process(context.Background(), req); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

func benchmarkPNG(b *testing.B, w, h int) []byte {
	b.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}
