package domain

import (
	"errors"
	"fmt"
)

// Rotation is one of the four supported clockwise rotations.
type Rotation int

const (
	RotateNone Rotation = 0
	Rotate90   Rotation = 90
	Rotate180  Rotation = 180
	Rotate270  Rotation = 270
)

const (
	BrightnessMin = -255
	BrightnessMax = 255
)

var ErrInvalidFilterConfig = errors.New("invalid filter configuration")

// CropRect is a rectangle in pixel coordinates, measured against the
// dimensions in force when crop executes (after rotation).
type CropRect struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// FilterConfig describes which pipeline stages are active and their
// parameters. It is pure data: the executor reads it, never mutates it, and
// the fixed stage order is decided by the executor rather than the config.
// Zero value means "no filters".
type FilterConfig struct {
	Grayscale      bool      `json:"grayscale,omitempty"`
	Brightness     int       `json:"brightness,omitempty"`
	Blur           float64   `json:"blur,omitempty"`
	FlipHorizontal bool      `json:"flip_horizontal,omitempty"`
	FlipVertical   bool      `json:"flip_vertical,omitempty"`
	Rotation       Rotation  `json:"rotation,omitempty"`
	Crop           *CropRect `json:"crop,omitempty"`
}

// Validate performs the checks that do not depend on buffer dimensions.
// Crop containment is checked by the executor against the dimensions present
// when the crop stage runs.
func (c FilterConfig) Validate() error {
	if c.Brightness < BrightnessMin || c.Brightness > BrightnessMax {
		return fmt.Errorf("%w: brightness %d outside [%d, %d]",
			ErrInvalidFilterConfig, c.Brightness, BrightnessMin, BrightnessMax)
	}
	if c.Blur < 0 {
		return fmt.Errorf("%w: blur radius %g must be >= 0", ErrInvalidFilterConfig, c.Blur)
	}
	switch c.Rotation {
	case RotateNone, Rotate90, Rotate180, Rotate270:
	default:
		return fmt.Errorf("%w: rotation %d not one of 0/90/180/270", ErrInvalidFilterConfig, c.Rotation)
	}
	if c.Crop != nil && (c.Crop.Width == 0 || c.Crop.Height == 0) {
		return fmt.Errorf("%w: crop dimensions %dx%d must be positive",
			ErrInvalidFilterConfig, c.Crop.Width, c.Crop.Height)
	}
	return nil
}

// Enabled reports whether any stage would run.
func (c FilterConfig) Enabled() bool {
	return c.Grayscale ||
		c.Brightness != 0 ||
		c.Blur > 0 ||
		c.FlipHorizontal ||
		c.FlipVertical ||
		c.Rotation != RotateNone ||
		c.Crop != nil
}
