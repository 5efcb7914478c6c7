package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/pixlab/internal/codec"
	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/id"
	"github.com/dunamismax/pixlab/internal/queue"
	"github.com/dunamismax/pixlab/internal/store"
)

const (
	defaultPresignTTL   = 15 * time.Minute
	defaultUserIDHeader = "X-User-ID"

	// Inspect decodes only the header of the payload, but the whole body
	// still has to land in memory first.
	maxInspectBodyBytes = 32 << 20
)

type Server struct {
	logger                *log.Logger
	queueClient           queueEnqueuer
	renderStore           store.RenderStore
	storage               objectStorage
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	tracer                trace.Tracer
	metrics               *metrics
	presignTTL            time.Duration
	mux                   *http.ServeMux
}

type queueEnqueuer interface {
	EnqueueRenderImage(ctx context.Context, payload queue.RenderImagePayload) (*asynq.TaskInfo, error)
}

type objectStorage interface {
	PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

// ServerOptions carries the optional collaborators. Zero values disable the
// corresponding feature.
type ServerOptions struct {
	PresignTTL   time.Duration
	RateLimiter  RateLimiter
	UserIDHeader string
	Tracer       trace.Tracer
}

func NewServer(logger *log.Logger, queueClient queueEnqueuer, renderStore store.RenderStore, storage objectStorage, opts ServerOptions) *Server {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = defaultPresignTTL
	}
	if strings.TrimSpace(opts.UserIDHeader) == "" {
		opts.UserIDHeader = defaultUserIDHeader
	}
	if storage == nil {
		storage = unavailableObjectStorage{}
	}

	s := &Server{
		logger:                logger,
		queueClient:           queueClient,
		renderStore:           renderStore,
		storage:               storage,
		rateLimiter:           opts.RateLimiter,
		rateLimitUserIDHeader: opts.UserIDHeader,
		tracer:                opts.Tracer,
		metrics:               newMetrics(),
		presignTTL:            opts.PresignTTL,
		mux:                   http.NewServeMux(),
	}
	s.routes()
	return s
}

type unavailableObjectStorage struct{}

func (unavailableObjectStorage) PresignedPutURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) ObjectExists(_ context.Context, _ string) (bool, error) {
	return false, errors.New("object storage is unavailable")
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRateLimit(h)
	h = s.metrics.withHTTPMetrics(h)
	h = s.withTracing(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/renders", s.handleCreateRender)
	s.mux.HandleFunc("POST /v1/renders/", s.handleStartRender)
	s.mux.HandleFunc("GET /v1/renders/", s.handleGetRender)
	s.mux.HandleFunc("POST /v1/inspect", s.handleInspect)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRender(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRenderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	renderID := id.New()
	sourceType := strings.ToLower(strings.TrimSpace(req.SourceType))
	objectKey := strings.TrimSpace(req.ObjectKey)
	uploadState := "not_required"
	presignedPutURL := ""

	if sourceType == domain.SourceTypeS3Presigned {
		objectKey = fmt.Sprintf("uploads/%s/source", renderID)
		url, err := s.storage.PresignedPutURL(r.Context(), objectKey, s.presignTTL)
		if err != nil {
			s.logger.Printf("generate presigned url failed for render %s: %v", renderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate upload URL"})
			return
		}
		presignedPutURL = url
		uploadState = "ready"
	}

	render := domain.Render{
		ID:         renderID,
		UserID:     s.requestUserID(r),
		Status:     domain.RenderStatusCreated,
		SourceType: sourceType,
		WebhookURL: req.WebhookURL,
		Filters:    req.Filters,
		Output:     req.Output,
		ObjectKey:  objectKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.renderStore.Create(r.Context(), render); err != nil {
		s.logger.Printf("create render failed for render %s: %v", render.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create render"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"render_id": render.ID,
		"status":    render.Status,
		"upload": map[string]string{
			"object_key":          render.ObjectKey,
			"presigned_put_url":   presignedPutURL,
			"presigned_url_state": uploadState,
		},
		"start_url": fmt.Sprintf("/v1/renders/%s/start", render.ID),
	})
}

func (s *Server) handleStartRender(w http.ResponseWriter, r *http.Request) {
	renderID, err := extractRenderIDFromStartPath(r.URL.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	render, ok, err := s.renderStore.Get(r.Context(), renderID)
	if err != nil {
		s.logger.Printf("fetch render failed for render %s: %v", renderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load render"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "render not found"})
		return
	}

	if err := s.verifySourceExists(r.Context(), render); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	payload := queue.RenderImagePayload{
		RenderID:    render.ID,
		SourceType:  render.SourceType,
		WebhookURL:  render.WebhookURL,
		ObjectKey:   render.ObjectKey,
		Filters:     render.Filters,
		Output:      render.Output,
		RequestedAt: time.Now().UTC(),
	}

	taskInfo, err := s.queueClient.EnqueueRenderImage(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed for render %s: %v", render.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue render"})
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	if _, err := s.renderStore.UpdateStatus(r.Context(), render.ID, domain.RenderStatusQueued); err != nil {
		s.logger.Printf("update status failed for render %s: %v", render.ID, err)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"render_id":   render.ID,
		"status":      domain.RenderStatusQueued,
		"queue":       taskInfo.Queue,
		"task_id":     taskInfo.ID,
		"state":       taskInfo.State.String(),
		"enqueued_at": taskInfo.NextProcessAt,
	})
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	renderID, err := extractRenderIDFromPath(r.URL.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	render, ok, err := s.renderStore.Get(r.Context(), renderID)
	if err != nil {
		s.logger.Printf("fetch render failed for render %s: %v", renderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load render"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "render not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"render_id":   render.ID,
		"status":      render.Status,
		"source_type": render.SourceType,
		"object_key":  render.ObjectKey,
		"filters":     render.Filters,
		"output":      render.Output,
		"created_at":  render.CreatedAt,
		"updated_at":  render.UpdatedAt,
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInspectBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body is empty"})
		return
	}
	if len(body) > maxInspectBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image exceeds inspect size limit"})
		return
	}

	meta, err := codec.Inspect(body)
	if err != nil {
		if errors.Is(err, codec.ErrUnsupportedFormat) {
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) verifySourceExists(ctx context.Context, render domain.Render) error {
	switch render.SourceType {
	case domain.SourceTypeLocalFile:
		if _, err := os.Stat(render.ObjectKey); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("source object is missing: %s", render.ObjectKey)
			}
			return fmt.Errorf("source object check failed: %w", err)
		}
		return nil
	default:
		exists, err := s.storage.ObjectExists(ctx, render.ObjectKey)
		if err != nil {
			return fmt.Errorf("source object check failed: %w", err)
		}
		if !exists {
			return fmt.Errorf("source object is missing: %s", render.ObjectKey)
		}
		return nil
	}
}

func (s *Server) requestUserID(r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get(s.rateLimitUserIDHeader))
	if userID == "" {
		return "anonymous"
	}
	return userID
}

func extractRenderIDFromStartPath(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "/v1/renders/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "start" {
		return "", errors.New("expected path format /v1/renders/{id}/start")
	}
	return parts[0], nil
}

func extractRenderIDFromPath(path string) (string, error) {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/v1/renders/"), "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		return "", errors.New("expected path format /v1/renders/{id}")
	}
	return trimmed, nil
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
