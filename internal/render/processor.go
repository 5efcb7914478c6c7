// Package render wires the filter pipeline to its collaborators: a Fetcher
// producing encoded source bytes, the codec, the pipeline executor, and an
// Emitter receiving the encoded result. The pipeline itself stays free of
// I/O; everything blocking lives here.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunamismax/pixlab/internal/codec"
	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/pipeline"
)

const SourceTypeLocalFile = domain.SourceTypeLocalFile

var ErrUnsupportedSourceType = errors.New("unsupported source_type")

type Request struct {
	RenderID   string
	SourceType string
	ObjectKey  string
	Filters    domain.FilterConfig
	Output     domain.OutputSpec
}

type Output struct {
	Format  string
	Path    string
	Bytes   int
	Width   int
	Height  int
	Success bool
}

type Result struct {
	SourceBytes  int
	SourceWidth  int
	SourceHeight int
	Output       Output
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, req Request, data []byte, format string, width, height int) (Output, error)
}

type Processor struct {
	fetcher Fetcher
	emitter Emitter
}

func NewLocalProcessor(outputDir string) *Processor {
	return &Processor{
		fetcher: LocalFileFetcher{},
		emitter: LocalFileEmitter{OutputDir: outputDir},
	}
}

func NewProcessor(fetcher Fetcher, emitter Emitter) (*Processor, error) {
	if fetcher == nil || emitter == nil {
		return nil, errors.New("fetcher and emitter are required")
	}
	return &Processor{fetcher: fetcher, emitter: emitter}, nil
}

// Process runs one render end to end: fetch, decode, filter, encode, emit.
// Any stage error aborts the rest; nothing partial is emitted.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.RenderID) == "" {
		return Result{}, errors.New("render_id is required")
	}
	if !req.Filters.Enabled() {
		return Result{}, errors.New("filters must enable at least one stage")
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	source, sourceFormat, err := codec.Decode(sourceBytes)
	if err != nil {
		return Result{}, fmt.Errorf("decode stage: %w", err)
	}

	filtered, err := pipeline.Apply(ctx, source, req.Filters)
	if err != nil {
		return Result{}, fmt.Errorf("filter stage: %w", err)
	}

	format := codec.NormalizeFormat(strings.ToLower(strings.TrimSpace(req.Output.Format)))
	if strings.TrimSpace(req.Output.Format) == "" {
		format = sourceFormat
	}

	encoded, err := codec.Encode(filtered, format, req.Output.Quality)
	if err != nil {
		return Result{}, fmt.Errorf("encode stage: %w", err)
	}

	written, err := p.emitter.Emit(ctx, req, encoded, format, int(filtered.Width), int(filtered.Height))
	if err != nil {
		return Result{}, fmt.Errorf("emit stage: %w", err)
	}

	return Result{
		SourceBytes:  len(sourceBytes),
		SourceWidth:  int(source.Width),
		SourceHeight: int(source.Height),
		Output:       written,
	}, nil
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req Request, data []byte, format string, width, height int) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}

	renderDir := filepath.Join(e.OutputDir, sanitizePathToken(req.RenderID))
	if err := os.MkdirAll(renderDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(renderDir, "render."+codec.NormalizeFormat(format))
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		Format:  codec.NormalizeFormat(format),
		Path:    fullPath,
		Bytes:   len(data),
		Width:   width,
		Height:  height,
		Success: true,
	}, nil
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
