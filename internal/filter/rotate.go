package filter

import "github.com/dunamismax/pixlab/internal/pixel"

// Rotate90CW rotates the buffer 90 degrees clockwise into a new buffer with
// swapped dimensions: out[x,y] = in[y, inHeight-1-x]. Exact pixel
// permutation, no interpolation.
func Rotate90CW(buf pixel.Buffer) pixel.Buffer {
	inW, inH := int(buf.Width), int(buf.Height)
	out := pixel.Alloc(buf.Height, buf.Width)
	for y := 0; y < inH; y++ {
		for x := 0; x < inW; x++ {
			src := (y*inW + x) * pixel.BytesPerPixel
			// (x, y) lands at (inH-1-y, x) in the rotated frame.
			dst := (x*inH + (inH - 1 - y)) * pixel.BytesPerPixel
			copy(out.Data[dst:dst+pixel.BytesPerPixel], buf.Data[src:src+pixel.BytesPerPixel])
		}
	}
	return out
}

// Rotate180 rotates the buffer 180 degrees in place by reversing the pixel
// sequence. Dimensions are preserved.
func Rotate180(buf pixel.Buffer) pixel.Buffer {
	n := len(buf.Data) / pixel.BytesPerPixel
	for front, back := 0, n-1; front < back; front, back = front+1, back-1 {
		f := front * pixel.BytesPerPixel
		b := back * pixel.BytesPerPixel
		for c := 0; c < pixel.BytesPerPixel; c++ {
			buf.Data[f+c], buf.Data[b+c] = buf.Data[b+c], buf.Data[f+c]
		}
	}
	return buf
}

// Rotate270CW rotates the buffer 270 degrees clockwise (90 CCW) into a new
// buffer with swapped dimensions: out[x,y] = in[inWidth-1-y, x].
func Rotate270CW(buf pixel.Buffer) pixel.Buffer {
	inW, inH := int(buf.Width), int(buf.Height)
	out := pixel.Alloc(buf.Height, buf.Width)
	for y := 0; y < inH; y++ {
		for x := 0; x < inW; x++ {
			src := (y*inW + x) * pixel.BytesPerPixel
			// (x, y) lands at (y, inW-1-x) in the rotated frame.
			dst := ((inW-1-x)*inH + y) * pixel.BytesPerPixel
			copy(out.Data[dst:dst+pixel.BytesPerPixel], buf.Data[src:src+pixel.BytesPerPixel])
		}
	}
	return out
}
