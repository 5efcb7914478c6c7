package queue

import (
	"testing"
	"time"

	"github.com/dunamismax/pixlab/internal/domain"
)

func TestRenderImageTaskRoundTrip(t *testing.T) {
	payload := RenderImagePayload{
		RenderID:   "render-123",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/render-123/source",
		Filters: domain.FilterConfig{
			Grayscale: true,
			Blur:      2.5,
			Rotation:  domain.Rotate90,
			Crop:      &domain.CropRect{X: 1, Y: 2, Width: 10, Height: 20},
		},
		Output:      domain.OutputSpec{Format: "webp", Quality: 90},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewRenderImageTask(payload)
	if err != nil {
		t.Fatalf("NewRenderImageTask returned error: %v", err)
	}

	parsed, err := ParseRenderImagePayload(task)
	if err != nil {
		t.Fatalf("ParseRenderImagePayload returned error: %v", err)
	}

	if parsed.RenderID != payload.RenderID {
		t.Fatalf("expected render_id %q, got %q", payload.RenderID, parsed.RenderID)
	}
	if !parsed.Filters.Grayscale || parsed.Filters.Blur != 2.5 || parsed.Filters.Rotation != domain.Rotate90 {
		t.Fatalf("filters did not survive the round trip: %+v", parsed.Filters)
	}
	if parsed.Filters.Crop == nil || *parsed.Filters.Crop != (domain.CropRect{X: 1, Y: 2, Width: 10, Height: 20}) {
		t.Fatalf("crop rect did not survive the round trip: %+v", parsed.Filters.Crop)
	}
	if parsed.Output.Format != "webp" {
		t.Fatalf("expected output format webp, got %s", parsed.Output.Format)
	}
}
