//go:build govips && cgo

package codec

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/dunamismax/pixlab/internal/pixel"
)

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

// Startup initializes the libvips runtime. Safe to call more than once.
func Startup() error {
	startupOnce.Do(func() {
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   128 * 1024 * 1024,
			MaxCacheSize:  100,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

// Shutdown releases the libvips runtime if Startup ran.
func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

// encodeWebP round-trips through lossless PNG into libvips for the WebP
// export, since libvips only ingests encoded buffers.
func encodeWebP(buf pixel.Buffer, quality int) ([]byte, error) {
	pngBytes, err := encodePNG(buf)
	if err != nil {
		return nil, err
	}

	img, err := vips.NewImageFromBuffer(pngBytes)
	if err != nil {
		return nil, fmt.Errorf("load buffer into vips: %w", err)
	}
	defer img.Close()

	params := vips.NewWebpExportParams()
	if quality > 0 && quality <= 100 {
		params.Quality = quality
	}
	data, _, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return data, nil
}
