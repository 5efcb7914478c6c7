package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dunamismax/pixlab/internal/domain"
)

const TypeRenderImage = "image:render"

type RenderImagePayload struct {
	RenderID    string              `json:"render_id"`
	SourceType  string              `json:"source_type"`
	WebhookURL  string              `json:"webhook_url,omitempty"`
	ObjectKey   string              `json:"object_key"`
	Filters     domain.FilterConfig `json:"filters"`
	Output      domain.OutputSpec   `json:"output,omitempty"`
	RequestedAt time.Time           `json:"requested_at"`
}

func NewRenderImageTask(payload RenderImagePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}
	return asynq.NewTask(TypeRenderImage, body), nil
}

func ParseRenderImagePayload(task *asynq.Task) (RenderImagePayload, error) {
	var payload RenderImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RenderImagePayload{}, fmt.Errorf("unmarshal render payload: %w", err)
	}
	return payload, nil
}
