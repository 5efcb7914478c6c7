package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/filter"
	"github.com/dunamismax/pixlab/internal/pixel"
)

func testSquare(t *testing.T) pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(2, 2, []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		255, 255, 255, 255,
	})
	if err != nil {
		t.Fatalf("build test buffer: %v", err)
	}
	return buf
}

func TestApplyEmptyConfigIsZeroCostPassthrough(t *testing.T) {
	src := testSquare(t)
	out, err := Apply(context.Background(), src, domain.FilterConfig{})
	if err != nil {
		t.Fatalf("apply empty config: %v", err)
	}
	if &out.Data[0] != &src.Data[0] {
		t.Fatal("expected passthrough without copying for all-disabled config")
	}
}

func TestApplyNeverMutatesInput(t *testing.T) {
	src := testSquare(t)
	original := append([]byte(nil), src.Data...)

	out, err := Apply(context.Background(), src, domain.FilterConfig{
		Grayscale:      true,
		FlipHorizontal: true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !bytes.Equal(src.Data, original) {
		t.Fatal("executor mutated the caller's buffer")
	}
	if bytes.Equal(out.Data, original) {
		t.Fatal("expected output to differ from input")
	}
}

func TestApplyStageOrderGrayscaleBeforeBrightness(t *testing.T) {
	cfg := domain.FilterConfig{Grayscale: true, Brightness: 50}

	got, err := Apply(context.Background(), testSquare(t), cfg)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	want, err := filter.Brightness(filter.Grayscale(testSquare(t)), 50)
	if err != nil {
		t.Fatalf("reference composition: %v", err)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("stage order violated:\ngot  %v\nwant %v", got.Data, want.Data)
	}
}

func TestApplyCropRunsAgainstPostRotationDimensions(t *testing.T) {
	data := make([]byte, 3*2*pixel.BytesPerPixel)
	for i := range data {
		data[i] = byte(i)
	}
	src, err := pixel.New(3, 2, data)
	if err != nil {
		t.Fatalf("build 3x2 buffer: %v", err)
	}

	// After a 90 rotation the buffer is 2x3, so a 2x3 full crop is legal...
	out, err := Apply(context.Background(), src, domain.FilterConfig{
		Rotation: domain.Rotate90,
		Crop:     &domain.CropRect{X: 0, Y: 0, Width: 2, Height: 3},
	})
	if err != nil {
		t.Fatalf("apply rotate+crop: %v", err)
	}
	if out.Width != 2 || out.Height != 3 {
		t.Fatalf("expected 2x3 output, got %dx%d", out.Width, out.Height)
	}

	// ...while a rect computed against the pre-rotation 3x2 shape is rejected,
	// never clamped.
	_, err = Apply(context.Background(), src, domain.FilterConfig{
		Rotation: domain.Rotate90,
		Crop:     &domain.CropRect{X: 0, Y: 0, Width: 3, Height: 2},
	})
	if !errors.Is(err, filter.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for stale crop rect, got %v", err)
	}
}

func TestApplyFailureReturnsOriginalBuffer(t *testing.T) {
	src := testSquare(t)
	original := append([]byte(nil), src.Data...)

	out, err := Apply(context.Background(), src, domain.FilterConfig{
		Grayscale: true,
		Crop:      &domain.CropRect{X: 1, Y: 1, Width: 2, Height: 2},
	})
	if !errors.Is(err, filter.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if &out.Data[0] != &src.Data[0] {
		t.Fatal("expected the original buffer back on failure")
	}
	if !bytes.Equal(out.Data, original) {
		t.Fatal("failed run leaked partial results into the caller's buffer")
	}
}

func TestApplyRejectsInvalidConfigUpfront(t *testing.T) {
	_, err := Apply(context.Background(), testSquare(t), domain.FilterConfig{Brightness: 999})
	if !errors.Is(err, domain.ErrInvalidFilterConfig) {
		t.Fatalf("expected ErrInvalidFilterConfig, got %v", err)
	}
}

func TestApplyRejectsMalformedBuffer(t *testing.T) {
	bad := pixel.Buffer{Width: 2, Height: 2, Data: make([]byte, 7)}
	_, err := Apply(context.Background(), bad, domain.FilterConfig{Grayscale: true})
	if !errors.Is(err, pixel.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestApplyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := testSquare(t)
	out, err := Apply(ctx, src, domain.FilterConfig{Grayscale: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if &out.Data[0] != &src.Data[0] {
		t.Fatal("expected the original buffer back on cancellation")
	}
}

func TestApplyFullChain(t *testing.T) {
	data := make([]byte, 4*3*pixel.BytesPerPixel)
	for i := range data {
		data[i] = byte((i * 7) % 256)
	}
	src, err := pixel.New(4, 3, data)
	if err != nil {
		t.Fatalf("build 4x3 buffer: %v", err)
	}

	out, err := Apply(context.Background(), src, domain.FilterConfig{
		Grayscale:      true,
		Brightness:     -20,
		FlipHorizontal: true,
		FlipVertical:   true,
		Rotation:       domain.Rotate270,
		Blur:           1.5,
		Crop:           &domain.CropRect{X: 1, Y: 1, Width: 2, Height: 2},
	})
	if err != nil {
		t.Fatalf("apply full chain: %v", err)
	}
	if out.Width != 2 || out.Height != 2 {
		t.Fatalf("expected 2x2 output, got %dx%d", out.Width, out.Height)
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("output failed shape validation: %v", err)
	}
	for i := 0; i < len(out.Data); i += pixel.BytesPerPixel {
		if out.Data[i] != out.Data[i+1] || out.Data[i+1] != out.Data[i+2] {
			t.Fatalf("pixel %d not grayscale after full chain: %v", i/4, out.Data[i:i+4])
		}
	}
}
