package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dunamismax/pixlab/internal/domain"
)

const renderSchemaSQL = `
CREATE TABLE IF NOT EXISTS renders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	source_type TEXT NOT NULL,
	webhook_url TEXT NOT NULL DEFAULT '',
	filters JSONB NOT NULL,
	output JSONB NOT NULL,
	object_key TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_logs (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	render_id TEXT NOT NULL,
	pixels_processed BIGINT NOT NULL,
	bytes_written BIGINT NOT NULL,
	compute_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresRenderStore struct {
	db *sql.DB
}

func NewPostgresRenderStore(ctx context.Context, dsn string) (*PostgresRenderStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresRenderStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresRenderStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, renderSchemaSQL); err != nil {
		return fmt.Errorf("ensure render schema: %w", err)
	}
	return nil
}

func (s *PostgresRenderStore) Close() error {
	return s.db.Close()
}

func (s *PostgresRenderStore) Create(ctx context.Context, render domain.Render) error {
	filtersJSON, err := json.Marshal(render.Filters)
	if err != nil {
		return fmt.Errorf("marshal render filters: %w", err)
	}
	outputJSON, err := json.Marshal(render.Output)
	if err != nil {
		return fmt.Errorf("marshal render output spec: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO renders (id, user_id, status, source_type, webhook_url, filters, output, object_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		render.ID,
		render.UserID,
		render.Status,
		render.SourceType,
		render.WebhookURL,
		filtersJSON,
		outputJSON,
		render.ObjectKey,
		render.CreatedAt,
		render.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}

	return nil
}

func (s *PostgresRenderStore) Get(ctx context.Context, id string) (domain.Render, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, status, source_type, webhook_url, filters, output, object_key, created_at, updated_at
		 FROM renders
		 WHERE id = $1`,
		id,
	)

	var (
		render      domain.Render
		filtersJSON []byte
		outputJSON  []byte
	)
	if err := row.Scan(
		&render.ID,
		&render.UserID,
		&render.Status,
		&render.SourceType,
		&render.WebhookURL,
		&filtersJSON,
		&outputJSON,
		&render.ObjectKey,
		&render.CreatedAt,
		&render.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Render{}, false, nil
		}
		return domain.Render{}, false, fmt.Errorf("query render: %w", err)
	}

	if err := json.Unmarshal(filtersJSON, &render.Filters); err != nil {
		return domain.Render{}, false, fmt.Errorf("unmarshal render filters: %w", err)
	}
	if err := json.Unmarshal(outputJSON, &render.Output); err != nil {
		return domain.Render{}, false, fmt.Errorf("unmarshal render output spec: %w", err)
	}

	return render, true, nil
}

func (s *PostgresRenderStore) UpdateStatus(ctx context.Context, id, status string) (domain.Render, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE renders
		 SET status = $1, updated_at = $2
		 WHERE id = $3`,
		status,
		now,
		id,
	)
	if err != nil {
		return domain.Render{}, fmt.Errorf("update render status: %w", err)
	}

	render, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Render{}, err
	}
	if !ok {
		return domain.Render{}, ErrRenderNotFound
	}

	return render, nil
}

func (s *PostgresRenderStore) CreateUsageLog(ctx context.Context, usage domain.UsageLog) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO usage_logs (user_id, render_id, pixels_processed, bytes_written, compute_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		usage.UserID,
		usage.RenderID,
		usage.PixelsProcessed,
		usage.BytesWritten,
		usage.ComputeTimeMS,
		usage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}
