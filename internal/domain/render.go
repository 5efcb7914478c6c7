package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RenderStatusCreated    = "created"
	RenderStatusQueued     = "queued"
	RenderStatusProcessing = "processing"
	RenderStatusSucceeded  = "succeeded"
	RenderStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"
)

// OutputSpec describes the export encoding of a render.
type OutputSpec struct {
	Format  string `json:"format,omitempty"`
	Quality int    `json:"quality,omitempty"`
}

type CreateRenderRequest struct {
	SourceType string       `json:"source_type"`
	WebhookURL string       `json:"webhook_url,omitempty"`
	ObjectKey  string       `json:"object_key,omitempty"`
	Filters    FilterConfig `json:"filters"`
	Output     OutputSpec   `json:"output,omitempty"`
}

// Render is one filter-pipeline run over one source image, tracked from
// creation through worker completion.
type Render struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Filters    FilterConfig
	Output     OutputSpec
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateRenderRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if !r.Filters.Enabled() {
		return errors.New("filters must enable at least one stage")
	}
	if err := r.Filters.Validate(); err != nil {
		return err
	}
	if r.Output.Quality < 0 || r.Output.Quality > 100 {
		return fmt.Errorf("output.quality %d outside [0, 100]", r.Output.Quality)
	}
	return nil
}
