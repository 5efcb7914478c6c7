package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dunamismax/pixlab/internal/domain"
	"github.com/dunamismax/pixlab/internal/pixel"
)

func sessionBuffer(t *testing.T) pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(2, 2, []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		255, 255, 255, 255,
	})
	if err != nil {
		t.Fatalf("build session buffer: %v", err)
	}
	return buf
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for render result")
		return Result{}
	}
}

func TestSessionRendersAndCommits(t *testing.T) {
	s, err := NewSession(sessionBuffer(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	res := waitResult(t, s.Render(context.Background(), domain.FilterConfig{Grayscale: true}))
	if res.Err != nil {
		t.Fatalf("render: %v", res.Err)
	}
	if res.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", res.Generation)
	}

	committed, generation := s.Committed()
	if generation != 1 {
		t.Fatalf("expected committed generation 1, got %d", generation)
	}
	if !bytes.Equal(committed.Data, res.Buffer.Data) {
		t.Fatal("committed buffer does not match render result")
	}
	for i := 0; i < len(committed.Data); i += pixel.BytesPerPixel {
		if committed.Data[i] != committed.Data[i+1] || committed.Data[i+1] != committed.Data[i+2] {
			t.Fatalf("committed pixel %d is not grayscale", i/4)
		}
	}
}

func TestSessionFailedRenderDoesNotCommit(t *testing.T) {
	s, err := NewSession(sessionBuffer(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	before, _ := s.Committed()
	res := waitResult(t, s.Render(context.Background(), domain.FilterConfig{
		Crop: &domain.CropRect{X: 1, Y: 1, Width: 5, Height: 5},
	}))
	if res.Err == nil {
		t.Fatal("expected render error for out-of-bounds crop")
	}

	after, _ := s.Committed()
	if !bytes.Equal(before.Data, after.Data) {
		t.Fatal("failed render changed the committed buffer")
	}
}

func TestSessionSupersedesInFlightRun(t *testing.T) {
	s, err := NewSession(sessionBuffer(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	// First run blocks until its context is cancelled, imitating a slow
	// pipeline that observes cancellation at a stage boundary.
	blocked := make(chan struct{})
	s.apply = func(ctx context.Context, src pixel.Buffer, cfg domain.FilterConfig) (pixel.Buffer, error) {
		close(blocked)
		<-ctx.Done()
		return src, ctx.Err()
	}
	first := s.Render(context.Background(), domain.FilterConfig{Blur: 10})
	<-blocked

	// Second run supersedes the first and completes normally.
	s.mu.Lock()
	s.apply = func(_ context.Context, src pixel.Buffer, _ domain.FilterConfig) (pixel.Buffer, error) {
		return src, nil
	}
	s.mu.Unlock()
	second := s.Render(context.Background(), domain.FilterConfig{Grayscale: true})

	firstRes := waitResult(t, first)
	if !errors.Is(firstRes.Err, context.Canceled) && !errors.Is(firstRes.Err, ErrSuperseded) {
		t.Fatalf("expected superseded or cancelled first run, got %v", firstRes.Err)
	}

	secondRes := waitResult(t, second)
	if secondRes.Err != nil {
		t.Fatalf("second render: %v", secondRes.Err)
	}

	_, generation := s.Committed()
	if generation != secondRes.Generation {
		t.Fatalf("expected committed generation %d, got %d", secondRes.Generation, generation)
	}
}

func TestSessionStaleResultIsDiscarded(t *testing.T) {
	s, err := NewSession(sessionBuffer(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	// First run ignores cancellation and finishes late with a poisoned
	// buffer; commit must still be refused.
	started := make(chan struct{})
	release := make(chan struct{})
	s.apply = func(_ context.Context, src pixel.Buffer, _ domain.FilterConfig) (pixel.Buffer, error) {
		close(started)
		<-release
		poisoned := src.Clone()
		for i := range poisoned.Data {
			poisoned.Data[i] = 1
		}
		return poisoned, nil
	}
	first := s.Render(context.Background(), domain.FilterConfig{Blur: 10})
	<-started

	s.mu.Lock()
	s.apply = func(_ context.Context, src pixel.Buffer, _ domain.FilterConfig) (pixel.Buffer, error) {
		return src, nil
	}
	s.mu.Unlock()
	second := s.Render(context.Background(), domain.FilterConfig{Grayscale: true})
	secondRes := waitResult(t, second)
	if secondRes.Err != nil {
		t.Fatalf("second render: %v", secondRes.Err)
	}

	close(release)
	firstRes := waitResult(t, first)
	if !errors.Is(firstRes.Err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for the stale run, got %v", firstRes.Err)
	}

	committed, _ := s.Committed()
	for _, b := range committed.Data {
		if b == 1 {
			t.Fatal("stale run leaked its buffer into committed state")
		}
	}
}

func TestSessionResetReplacesSource(t *testing.T) {
	s, err := NewSession(sessionBuffer(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	res := waitResult(t, s.Render(context.Background(), domain.FilterConfig{Grayscale: true}))
	if res.Err != nil {
		t.Fatalf("render: %v", res.Err)
	}

	replacement := pixel.Alloc(1, 1)
	replacement.Data[0] = 42
	if err := s.Reset(replacement); err != nil {
		t.Fatalf("reset: %v", err)
	}

	committed, _ := s.Committed()
	if committed.Width != 1 || committed.Height != 1 || committed.Data[0] != 42 {
		t.Fatal("reset did not replace the committed view with the new source")
	}

	if err := s.Reset(pixel.Buffer{Width: 2, Height: 2, Data: nil}); err == nil {
		t.Fatal("expected reset to reject a malformed buffer")
	}
}
