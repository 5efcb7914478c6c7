package filter

import (
	"fmt"
	"math"

	"github.com/dunamismax/pixlab/internal/pixel"
)

// Blur passes per call. Three box passes are a close Gaussian approximation
// while keeping every pass O(n) via running sums.
const blurPasses = 3

// Blur smooths the buffer with three successive separable box blurs whose
// widths approximate a Gaussian of sigma = radius. Sampling beyond the edge
// clamps to the nearest border pixel, and all four channels are treated
// independently (no premultiplication). radius 0 is a passthrough; a positive
// radius always produces a new buffer and leaves the input untouched.
func Blur(buf pixel.Buffer, radius float64) (pixel.Buffer, error) {
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return buf, fmt.Errorf("%w: blur radius %g must be a finite value >= 0", ErrInvalidParameter, radius)
	}
	if radius == 0 {
		return buf, nil
	}

	work := buf.Clone()
	scratch := pixel.Alloc(buf.Width, buf.Height)
	for _, r := range boxRadiiForGaussian(radius, blurPasses) {
		if r <= 0 {
			continue
		}
		boxBlurHorizontal(work, scratch, r)
		boxBlurVertical(scratch, work, r)
	}
	return work, nil
}

// boxRadiiForGaussian picks n odd box widths whose composition approximates
// a Gaussian of the given sigma (the standard boxes-for-Gauss construction),
// returned as radii (width-1)/2.
func boxRadiiForGaussian(sigma float64, n int) []int {
	nf := float64(n)
	wIdeal := math.Sqrt(12*sigma*sigma/nf + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2

	mIdeal := (12*sigma*sigma - nf*float64(wl*wl) - 4*nf*float64(wl) - 3*nf) / (-4*float64(wl) - 4)
	m := int(math.Round(mIdeal))

	radii := make([]int, n)
	for i := range radii {
		width := wu
		if i < m {
			width = wl
		}
		radii[i] = (width - 1) / 2
	}
	return radii
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// boxBlurHorizontal averages each pixel over the window [x-radius, x+radius]
// within its row, clamping window taps to the row edges. Rounds half up.
func boxBlurHorizontal(src, dst pixel.Buffer, radius int) {
	w, h := int(src.Width), int(src.Height)
	window := 2*radius + 1
	half := window / 2
	rowBytes := w * pixel.BytesPerPixel

	for y := 0; y < h; y++ {
		row := src.Data[y*rowBytes : (y+1)*rowBytes]
		out := dst.Data[y*rowBytes : (y+1)*rowBytes]

		var sum [pixel.BytesPerPixel]int
		for i := -radius; i <= radius; i++ {
			o := clampIndex(i, w) * pixel.BytesPerPixel
			for c := 0; c < pixel.BytesPerPixel; c++ {
				sum[c] += int(row[o+c])
			}
		}

		for x := 0; x < w; x++ {
			o := x * pixel.BytesPerPixel
			for c := 0; c < pixel.BytesPerPixel; c++ {
				out[o+c] = byte((sum[c] + half) / window)
			}
			add := clampIndex(x+radius+1, w) * pixel.BytesPerPixel
			sub := clampIndex(x-radius, w) * pixel.BytesPerPixel
			for c := 0; c < pixel.BytesPerPixel; c++ {
				sum[c] += int(row[add+c]) - int(row[sub+c])
			}
		}
	}
}

// boxBlurVertical is the column counterpart, kept cache-friendly by holding
// one running sum per column byte and sliding whole rows through the window.
func boxBlurVertical(src, dst pixel.Buffer, radius int) {
	w, h := int(src.Width), int(src.Height)
	window := 2*radius + 1
	half := window / 2
	rowBytes := w * pixel.BytesPerPixel

	sums := make([]int, rowBytes)
	for i := -radius; i <= radius; i++ {
		row := src.Data[clampIndex(i, h)*rowBytes:]
		for j := 0; j < rowBytes; j++ {
			sums[j] += int(row[j])
		}
	}

	for y := 0; y < h; y++ {
		out := dst.Data[y*rowBytes : (y+1)*rowBytes]
		for j := 0; j < rowBytes; j++ {
			out[j] = byte((sums[j] + half) / window)
		}
		addRow := src.Data[clampIndex(y+radius+1, h)*rowBytes:]
		subRow := src.Data[clampIndex(y-radius, h)*rowBytes:]
		for j := 0; j < rowBytes; j++ {
			sums[j] += int(addRow[j]) - int(subRow[j])
		}
	}
}
