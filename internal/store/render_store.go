package store

import (
	"context"

	"github.com/dunamismax/pixlab/internal/domain"
)

type RenderStore interface {
	Create(ctx context.Context, render domain.Render) error
	Get(ctx context.Context, id string) (domain.Render, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Render, error)
}

type UsageStore interface {
	CreateUsageLog(ctx context.Context, usage domain.UsageLog) error
}
