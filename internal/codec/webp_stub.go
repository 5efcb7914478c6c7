//go:build !govips || !cgo

package codec

import (
	"errors"

	"github.com/dunamismax/pixlab/internal/pixel"
)

func Startup() error {
	return nil
}

func Shutdown() {}

func encodeWebP(pixel.Buffer, int) ([]byte, error) {
	return nil, errors.New("webp export requires govips build tag")
}
