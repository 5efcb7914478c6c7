// Package filter holds the pixel kernels behind the editor: independent,
// deterministic transforms over raw RGBA8 buffers. Kernels never log and
// never touch anything outside the buffers they are handed; ordering and
// ownership are the pipeline executor's problem.
package filter

import "errors"

// ErrInvalidParameter marks a kernel parameter or crop rectangle that
// violates its precondition. Callers get the error verbatim; nothing is
// clamped or skipped.
var ErrInvalidParameter = errors.New("invalid filter parameter")

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
