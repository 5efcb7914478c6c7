package domain

import (
	"errors"
	"testing"
)

func TestCreateRenderRequestValidate(t *testing.T) {
	valid := CreateRenderRequest{
		SourceType: SourceTypeS3Presigned,
		Filters:    FilterConfig{Grayscale: true},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	empty := CreateRenderRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingObjectKey := CreateRenderRequest{
		SourceType: SourceTypeLocalFile,
		Filters:    FilterConfig{Grayscale: true},
	}
	if err := missingObjectKey.Validate(); err == nil {
		t.Fatal("expected validation error for local_file without object_key")
	}

	unsupportedSourceType := CreateRenderRequest{
		SourceType: "http_url",
		Filters:    FilterConfig{Grayscale: true},
	}
	if err := unsupportedSourceType.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported source_type")
	}

	noStages := CreateRenderRequest{
		SourceType: SourceTypeS3Presigned,
	}
	if err := noStages.Validate(); err == nil {
		t.Fatal("expected validation error when no filter stage is enabled")
	}

	badQuality := CreateRenderRequest{
		SourceType: SourceTypeS3Presigned,
		Filters:    FilterConfig{Grayscale: true},
		Output:     OutputSpec{Format: "jpeg", Quality: 150},
	}
	if err := badQuality.Validate(); err == nil {
		t.Fatal("expected validation error for quality outside [0, 100]")
	}
}

func TestFilterConfigValidate(t *testing.T) {
	if err := (FilterConfig{}).Validate(); err != nil {
		t.Fatalf("expected zero config to be valid, got %v", err)
	}

	brightnessTooHigh := FilterConfig{Brightness: 300}
	if err := brightnessTooHigh.Validate(); !errors.Is(err, ErrInvalidFilterConfig) {
		t.Fatalf("expected ErrInvalidFilterConfig, got %v", err)
	}

	negativeBlur := FilterConfig{Blur: -1}
	if err := negativeBlur.Validate(); !errors.Is(err, ErrInvalidFilterConfig) {
		t.Fatalf("expected ErrInvalidFilterConfig for negative blur, got %v", err)
	}

	badRotation := FilterConfig{Rotation: 45}
	if err := badRotation.Validate(); !errors.Is(err, ErrInvalidFilterConfig) {
		t.Fatalf("expected ErrInvalidFilterConfig for rotation=45, got %v", err)
	}

	zeroCrop := FilterConfig{Crop: &CropRect{X: 0, Y: 0, Width: 0, Height: 4}}
	if err := zeroCrop.Validate(); !errors.Is(err, ErrInvalidFilterConfig) {
		t.Fatalf("expected ErrInvalidFilterConfig for zero-width crop, got %v", err)
	}
}

func TestFilterConfigEnabled(t *testing.T) {
	if (FilterConfig{}).Enabled() {
		t.Fatal("zero config should report no enabled stages")
	}
	cases := []FilterConfig{
		{Grayscale: true},
		{Brightness: -10},
		{Blur: 1.5},
		{FlipHorizontal: true},
		{FlipVertical: true},
		{Rotation: Rotate270},
		{Crop: &CropRect{Width: 1, Height: 1}},
	}
	for i, cfg := range cases {
		if !cfg.Enabled() {
			t.Fatalf("case %d: expected enabled", i)
		}
	}
}
