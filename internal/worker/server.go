package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/pixlab/internal/config"
	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/queue"
	"github.com/dunamismax/pixlab/internal/render"
	"github.com/dunamismax/pixlab/internal/storage"
	"github.com/dunamismax/pixlab/internal/store"
	"github.com/dunamismax/pixlab/internal/webhook"
)

type Server struct {
	logger          *log.Logger
	server          *asynq.Server
	sem             chan struct{}
	localProcessor  *render.Processor
	objectProcessor *render.Processor
	webhookClient   webhookSender
	renderStore     store.RenderStore
	usageStore      store.UsageStore
	metrics         *metrics
	tracer          trace.Tracer
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	storageClient *storage.Client,
	webhookClient *webhook.Client,
	renderStore store.RenderStore,
	usageStore store.UsageStore,
) (*Server, error) {
	if storageClient == nil {
		return nil, fmt.Errorf("storage client is required")
	}

	localProcessor := render.NewLocalProcessor(workerCfg.LocalOutputDir)

	objectProcessor, err := render.NewProcessor(
		render.ObjectStoreFetcher{Storage: storageClient},
		render.ObjectStoreEmitter{Storage: storageClient},
	)
	if err != nil {
		return nil, fmt.Errorf("initialize object-store processor: %w", err)
	}

	if usageStore == nil {
		if renderAndUsageStore, ok := renderStore.(store.UsageStore); ok {
			usageStore = renderAndUsageStore
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:             make(chan struct{}, max(1, workerCfg.MaxActiveRenders)),
		localProcessor:  localProcessor,
		objectProcessor: objectProcessor,
		renderStore:     renderStore,
		usageStore:      usageStore,
		metrics:         newMetrics(),
		tracer:          otel.Tracer("pixlab/worker"),
	}
	if webhookClient != nil {
		s.webhookClient = webhookClient
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeRenderImage, s.handleRenderImage)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleRenderImage(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.RenderStatusFailed

	payload, err := queue.ParseRenderImagePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.render_image", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("render.id", payload.RenderID),
		attribute.String("render.source_type", payload.SourceType),
		attribute.String("render.output_format", payload.Output.Format),
	)
	defer span.End()
	defer func() {
		s.metrics.renderDuration.WithLabelValues(payload.SourceType, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.rendersTotal.WithLabelValues(payload.SourceType, outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeRenders.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeRenders.Dec()
	}()

	s.logger.Printf(
		"Working... render_id=%s source_type=%s object_key=%s",
		payload.RenderID,
		payload.SourceType,
		payload.ObjectKey,
	)

	s.updateRenderStatus(ctx, payload.RenderID, domain.RenderStatusProcessing)

	request := render.Request{
		RenderID:   payload.RenderID,
		SourceType: payload.SourceType,
		ObjectKey:  payload.ObjectKey,
		Filters:    payload.Filters,
		Output:     payload.Output,
	}

	var result render.Result
	switch payload.SourceType {
	case domain.SourceTypeLocalFile:
		result, err = s.localProcessor.Process(ctx, request)
	default:
		result, err = s.objectProcessor.Process(ctx, request)
	}
	if err != nil {
		s.updateRenderStatus(ctx, payload.RenderID, domain.RenderStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.dispatchWebhook(ctx, payload, "render.failed", map[string]any{
			"render_id":    payload.RenderID,
			"status":       domain.RenderStatusFailed,
			"source_type":  payload.SourceType,
			"object_key":   payload.ObjectKey,
			"requested_at": payload.RequestedAt,
			"failed_at":    time.Now().UTC(),
			"error":        err.Error(),
		})
		return fmt.Errorf("run render: %w", err)
	}

	s.logger.Printf(
		"Rendered render_id=%s format=%s size=%dx%d bytes=%d",
		payload.RenderID,
		result.Output.Format,
		result.Output.Width,
		result.Output.Height,
		result.Output.Bytes,
	)
	s.updateRenderStatus(ctx, payload.RenderID, domain.RenderStatusSucceeded)
	s.recordUsage(ctx, payload.RenderID, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, "render.completed", map[string]any{
		"render_id":    payload.RenderID,
		"status":       domain.RenderStatusSucceeded,
		"source_type":  payload.SourceType,
		"object_key":   payload.ObjectKey,
		"requested_at": payload.RequestedAt,
		"completed_at": time.Now().UTC(),
		"output":       result.Output,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		return err
	}

	outcome = domain.RenderStatusSucceeded
	span.SetStatus(codes.Ok, "rendered")
	return nil
}

func (s *Server) updateRenderStatus(ctx context.Context, renderID, status string) {
	if s.renderStore == nil {
		return
	}
	if _, err := s.renderStore.UpdateStatus(ctx, renderID, status); err != nil {
		s.logger.Printf("render status update failed render_id=%s status=%s err=%v", renderID, status, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.RenderImagePayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.logger.Printf("webhook delivery failed render_id=%s event=%s err=%v", payload.RenderID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

func (s *Server) recordUsage(ctx context.Context, renderID string, result render.Result, computeDuration time.Duration) {
	if s.usageStore == nil {
		return
	}

	userID := "anonymous"
	if s.renderStore != nil {
		rec, ok, err := s.renderStore.Get(ctx, renderID)
		if err != nil {
			s.logger.Printf("usage lookup failed render_id=%s err=%v", renderID, err)
		} else if ok && strings.TrimSpace(rec.UserID) != "" {
			userID = rec.UserID
		}
	}

	pixelsProcessed := int64(result.SourceWidth) * int64(result.SourceHeight)
	bytesWritten := int64(result.Output.Bytes)

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	usage := domain.UsageLog{
		UserID:          userID,
		RenderID:        renderID,
		PixelsProcessed: pixelsProcessed,
		BytesWritten:    bytesWritten,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usageStore.CreateUsageLog(ctx, usage); err != nil {
		s.logger.Printf("usage log write failed render_id=%s err=%v", renderID, err)
		return
	}

	s.metrics.pixelsProcessedTotal.Add(float64(pixelsProcessed))
	s.metrics.bytesWrittenTotal.Add(float64(bytesWritten))
	s.metrics.computeTimeMSTotal.Add(float64(computeTimeMS))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
