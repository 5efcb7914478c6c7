package filter

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/dunamismax/pixlab/internal/pixel"
)

func mustBuffer(t *testing.T, w, h uint32, data []byte) pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(w, h, data)
	if err != nil {
		t.Fatalf("build %dx%d test buffer: %v", w, h, err)
	}
	return buf
}

// Red, green, blue, white quads from the spec scenario.
func colorSquare(t *testing.T) pixel.Buffer {
	t.Helper()
	return mustBuffer(t, 2, 2, []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		255, 255, 255, 255,
	})
}

func TestGrayscaleLumaWeights(t *testing.T) {
	out := Grayscale(colorSquare(t))

	want := []byte{
		byte(math.Round(0.299 * 255)), // red pixel
		byte(math.Round(0.587 * 255)), // green pixel
		byte(math.Round(0.114 * 255)), // blue pixel
		255,                           // white pixel
	}
	for p := 0; p < 4; p++ {
		o := p * pixel.BytesPerPixel
		r, g, b, a := out.Data[o], out.Data[o+1], out.Data[o+2], out.Data[o+3]
		if r != g || g != b {
			t.Fatalf("pixel %d: expected R==G==B, got %d/%d/%d", p, r, g, b)
		}
		if r != want[p] {
			t.Fatalf("pixel %d: expected luma %d, got %d", p, want[p], r)
		}
		if a != 255 {
			t.Fatalf("pixel %d: alpha changed to %d", p, a)
		}
	}
}

func TestBrightnessClampAndIdentity(t *testing.T) {
	identity, err := Brightness(mustBuffer(t, 1, 1, []byte{10, 20, 30, 40}), 0)
	if err != nil {
		t.Fatalf("brightness 0: %v", err)
	}
	if !bytes.Equal(identity.Data, []byte{10, 20, 30, 40}) {
		t.Fatalf("brightness 0 is not the identity: %v", identity.Data)
	}

	brighter, err := Brightness(mustBuffer(t, 1, 1, []byte{250, 100, 0, 40}), 50)
	if err != nil {
		t.Fatalf("brightness +50: %v", err)
	}
	if !bytes.Equal(brighter.Data, []byte{255, 150, 50, 40}) {
		t.Fatalf("unexpected +50 result: %v", brighter.Data)
	}

	darker, err := Brightness(mustBuffer(t, 1, 1, []byte{30, 100, 255, 40}), -50)
	if err != nil {
		t.Fatalf("brightness -50: %v", err)
	}
	if !bytes.Equal(darker.Data, []byte{0, 50, 205, 40}) {
		t.Fatalf("unexpected -50 result: %v", darker.Data)
	}
}

func TestBrightnessInverseWhereUnclamped(t *testing.T) {
	const k = 60
	src := mustBuffer(t, 2, 1, []byte{
		// Values inside [k, 255-k] survive the round trip.
		100, 150, 195, 255,
		60, 61, 62, 10,
	})
	original := append([]byte(nil), src.Data...)

	up, err := Brightness(src, k)
	if err != nil {
		t.Fatalf("brightness +%d: %v", k, err)
	}
	down, err := Brightness(up, -k)
	if err != nil {
		t.Fatalf("brightness -%d: %v", k, err)
	}
	if !bytes.Equal(down.Data, original) {
		t.Fatalf("expected +%d then -%d to restore unclamped values, got %v", k, k, down.Data)
	}
}

func TestBrightnessRejectsOutOfRangeAdjustment(t *testing.T) {
	for _, adjustment := range []int{-256, 256, 1000} {
		if _, err := Brightness(colorSquare(t), adjustment); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("adjustment %d: expected ErrInvalidParameter, got %v", adjustment, err)
		}
	}
}

func TestBlurZeroRadiusIsPassthrough(t *testing.T) {
	src := colorSquare(t)
	out, err := Blur(src, 0)
	if err != nil {
		t.Fatalf("blur 0: %v", err)
	}
	if &out.Data[0] != &src.Data[0] {
		t.Fatal("blur 0 should return the input buffer without copying")
	}
}

func TestBlurPreservesDimensionsAndRange(t *testing.T) {
	src := colorSquare(t)
	before := append([]byte(nil), src.Data...)

	out, err := Blur(src, 2.5)
	if err != nil {
		t.Fatalf("blur 2.5: %v", err)
	}
	if out.Width != src.Width || out.Height != src.Height {
		t.Fatalf("blur changed dimensions to %dx%d", out.Width, out.Height)
	}
	if len(out.Data) != len(src.Data) {
		t.Fatalf("blur changed byte length to %d", len(out.Data))
	}
	if !bytes.Equal(src.Data, before) {
		t.Fatal("blur mutated its input buffer")
	}
}

func TestBlurUniformImageIsFixedPoint(t *testing.T) {
	data := make([]byte, 8*8*pixel.BytesPerPixel)
	for i := 0; i < len(data); i += pixel.BytesPerPixel {
		data[i], data[i+1], data[i+2], data[i+3] = 90, 120, 200, 255
	}
	src := mustBuffer(t, 8, 8, data)

	out, err := Blur(src, 3)
	if err != nil {
		t.Fatalf("blur uniform: %v", err)
	}
	if !bytes.Equal(out.Data, data) {
		t.Fatal("blurring a uniform image should not change any pixel")
	}
}

func TestBlurIsHorizontallySymmetric(t *testing.T) {
	// A left-right symmetric source must stay symmetric after blur; this pins
	// down both kernel symmetry and clamp-to-edge sampling.
	src := mustBuffer(t, 4, 1, []byte{
		200, 0, 0, 255,
		10, 10, 10, 255,
		10, 10, 10, 255,
		200, 0, 0, 255,
	})
	out, err := Blur(src, 1.2)
	if err != nil {
		t.Fatalf("blur symmetric row: %v", err)
	}
	for c := 0; c < pixel.BytesPerPixel; c++ {
		if out.Data[0*4+c] != out.Data[3*4+c] || out.Data[1*4+c] != out.Data[2*4+c] {
			t.Fatalf("blur broke mirror symmetry: %v", out.Data)
		}
	}
}

func TestBlurRejectsInvalidRadius(t *testing.T) {
	for _, radius := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := Blur(colorSquare(t), radius); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("radius %v: expected ErrInvalidParameter, got %v", radius, err)
		}
	}
}

func TestBoxRadiiForGaussian(t *testing.T) {
	radii := boxRadiiForGaussian(5, 3)
	if len(radii) != 3 {
		t.Fatalf("expected 3 radii, got %d", len(radii))
	}
	for i, r := range radii {
		if r < 1 {
			t.Fatalf("radius %d for sigma=5 should be >= 1, got %d", i, r)
		}
	}

	// Tiny sigmas degenerate to identity boxes rather than failing.
	for _, r := range boxRadiiForGaussian(0.05, 3) {
		if r < 0 {
			t.Fatalf("expected non-negative radius, got %d", r)
		}
	}
}
