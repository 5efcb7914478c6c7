// Package editor provides the interactive render session: one live image,
// at most one in-flight pipeline run. A newly requested render supersedes
// the previous one, so the committed result can never regress to an older
// filter configuration no matter how runs interleave.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/pipeline"
	"github.com/dunamismax/pixlab/internal/pixel"
)

// ErrSuperseded is delivered to a render whose result arrived after a newer
// render was requested. The caller should simply drop it; the newer run
// carries the state that matters.
var ErrSuperseded = errors.New("render superseded by a newer request")

// Result is the outcome of one render generation. Exactly one Result is
// delivered per Render call.
type Result struct {
	Buffer     pixel.Buffer
	Config     domain.FilterConfig
	Generation uint64
	Err        error
}

type applyFunc func(context.Context, pixel.Buffer, domain.FilterConfig) (pixel.Buffer, error)

// Session owns one source image and serializes pipeline runs over it.
// Supersession is cooperative: cancelling an in-flight run lets its current
// stage finish and skips the rest.
type Session struct {
	mu         sync.Mutex
	source     pixel.Buffer
	committed  pixel.Buffer
	generation uint64
	cancel     context.CancelFunc
	apply      applyFunc
}

// NewSession validates the source buffer and seeds the committed view with
// it (no filters applied).
func NewSession(source pixel.Buffer) (*Session, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		source:    source,
		committed: source,
		apply:     pipeline.Apply,
	}, nil
}

// Render starts a pipeline run for cfg, cancelling any run still in flight.
// The returned channel delivers exactly one Result and is never closed by
// concurrent renders. Results from superseded generations report
// ErrSuperseded and are not committed.
func (s *Session) Render(ctx context.Context, cfg domain.FilterConfig) <-chan Result {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	generation := s.generation
	source := s.source
	apply := s.apply
	s.mu.Unlock()

	ch := make(chan Result, 1)
	go func() {
		defer cancel()

		out, err := apply(runCtx, source, cfg)

		s.mu.Lock()
		stale := generation != s.generation
		if !stale && err == nil {
			s.committed = out
		}
		s.mu.Unlock()

		if stale {
			ch <- Result{Config: cfg, Generation: generation, Err: ErrSuperseded}
			return
		}
		ch <- Result{Buffer: out, Config: cfg, Generation: generation, Err: err}
	}()
	return ch
}

// Committed returns the most recently committed buffer and its generation.
// Before any successful render this is the source image.
func (s *Session) Committed() (pixel.Buffer, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, s.generation
}

// Reset replaces the source image, cancels any in-flight run and discards
// committed state. Used when the user loads a new image into the session.
func (s *Session) Reset(source pixel.Buffer) error {
	if err := source.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.source = source
	s.committed = source
	return nil
}
