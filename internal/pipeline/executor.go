// Package pipeline runs the fixed-order filter pipeline over a pixel buffer.
// The executor is stateless and safe to call concurrently as long as each
// call owns its buffer; within one call the stages are strictly sequential.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/filter"
	"github.com/dunamismax/pixlab/internal/pixel"
)

// ErrStateCorrupted marks a violation of the executor's internal dimension
// bookkeeping. It should be unreachable; it exists to turn a kernel bug into
// a hard failure instead of a corrupted image.
var ErrStateCorrupted = errors.New("pipeline state corrupted")

// Stage order is fixed: crop runs last because its coordinates are only
// meaningful against the final, possibly rotated, dimensions.
const (
	stageGrayscale  = "grayscale"
	stageBrightness = "brightness"
	stageFlipH      = "flip_horizontal"
	stageFlipV      = "flip_vertical"
	stageRotate     = "rotate"
	stageBlur       = "blur"
	stageCrop       = "crop"
)

// execution tracks the working buffer across stages. The caller's input is
// never mutated: the first in-place stage works on a lazily-taken clone, and
// dimension-changing stages allocate their own output.
type execution struct {
	buf   pixel.Buffer
	owned bool
}

func (e *execution) mutable() pixel.Buffer {
	if !e.owned {
		e.buf = e.buf.Clone()
		e.owned = true
	}
	return e.buf
}

func (e *execution) replace(buf pixel.Buffer) {
	e.buf = buf
	e.owned = true
}

// Apply runs the enabled stages of cfg over src in the fixed order
// grayscale, brightness, flip horizontal, flip vertical, rotation, blur,
// crop. Disabled stages cost nothing. On any error, including cancellation,
// the caller gets src back untouched together with the error. Cancellation
// is cooperative: it is checked between stages, never mid-kernel.
func Apply(ctx context.Context, src pixel.Buffer, cfg domain.FilterConfig) (pixel.Buffer, error) {
	if err := src.Validate(); err != nil {
		return src, err
	}
	if err := cfg.Validate(); err != nil {
		return src, err
	}

	run := execution{buf: src}
	width, height := src.Width, src.Height

	stages := []struct {
		name    string
		enabled bool
		apply   func() error
	}{
		{stageGrayscale, cfg.Grayscale, func() error {
			run.replace(filter.Grayscale(run.mutable()))
			return nil
		}},
		{stageBrightness, cfg.Brightness != 0, func() error {
			out, err := filter.Brightness(run.mutable(), cfg.Brightness)
			if err != nil {
				return err
			}
			run.replace(out)
			return nil
		}},
		{stageFlipH, cfg.FlipHorizontal, func() error {
			run.replace(filter.FlipHorizontal(run.mutable()))
			return nil
		}},
		{stageFlipV, cfg.FlipVertical, func() error {
			run.replace(filter.FlipVertical(run.mutable()))
			return nil
		}},
		{stageRotate, cfg.Rotation != domain.RotateNone, func() error {
			switch cfg.Rotation {
			case domain.Rotate90:
				run.replace(filter.Rotate90CW(run.buf))
				width, height = height, width
			case domain.Rotate180:
				run.replace(filter.Rotate180(run.mutable()))
			case domain.Rotate270:
				run.replace(filter.Rotate270CW(run.buf))
				width, height = height, width
			default:
				return fmt.Errorf("%w: rotation %d", filter.ErrInvalidParameter, cfg.Rotation)
			}
			return nil
		}},
		{stageBlur, cfg.Blur > 0, func() error {
			out, err := filter.Blur(run.buf, cfg.Blur)
			if err != nil {
				return err
			}
			run.replace(out)
			return nil
		}},
		{stageCrop, cfg.Crop != nil, func() error {
			out, err := filter.Crop(run.buf, *cfg.Crop)
			if err != nil {
				return err
			}
			run.replace(out)
			width, height = cfg.Crop.Width, cfg.Crop.Height
			return nil
		}},
	}

	for _, stage := range stages {
		if !stage.enabled {
			continue
		}

		select {
		case <-ctx.Done():
			return src, ctx.Err()
		default:
		}

		if err := stage.apply(); err != nil {
			return src, fmt.Errorf("%s stage: %w", stage.name, err)
		}

		if run.buf.Width != width || run.buf.Height != height {
			return src, fmt.Errorf("%w: after %s stage buffer is %dx%d, tracked %dx%d",
				ErrStateCorrupted, stage.name, run.buf.Width, run.buf.Height, width, height)
		}
		if err := run.buf.Validate(); err != nil {
			return src, fmt.Errorf("%w: after %s stage: %v", ErrStateCorrupted, stage.name, err)
		}
	}

	return run.buf, nil
}
