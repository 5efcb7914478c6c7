package filter

import "github.com/dunamismax/pixlab/internal/pixel"

// FlipHorizontal mirrors the buffer left-right in place: out[x,y] = in[w-1-x,y].
func FlipHorizontal(buf pixel.Buffer) pixel.Buffer {
	w := int(buf.Width)
	rowBytes := w * pixel.BytesPerPixel
	for y := 0; y < int(buf.Height); y++ {
		row := buf.Data[y*rowBytes : (y+1)*rowBytes]
		for left, right := 0, w-1; left < right; left, right = left+1, right-1 {
			l := left * pixel.BytesPerPixel
			r := right * pixel.BytesPerPixel
			for c := 0; c < pixel.BytesPerPixel; c++ {
				row[l+c], row[r+c] = row[r+c], row[l+c]
			}
		}
	}
	return buf
}

// FlipVertical mirrors the buffer top-bottom in place: out[x,y] = in[x,h-1-y].
func FlipVertical(buf pixel.Buffer) pixel.Buffer {
	h := int(buf.Height)
	rowBytes := int(buf.Width) * pixel.BytesPerPixel
	tmp := make([]byte, rowBytes)
	for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
		topRow := buf.Data[top*rowBytes : (top+1)*rowBytes]
		bottomRow := buf.Data[bottom*rowBytes : (bottom+1)*rowBytes]
		copy(tmp, topRow)
		copy(topRow, bottomRow)
		copy(bottomRow, tmp)
	}
	return buf
}
